package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rcconf-manager/core/events"
	"rcconf-manager/core/rcconf"
	"rcconf-manager/core/storage/mocks"
	"rcconf-manager/feature/defaults"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticOverrides map[string]string

func (s staticOverrides) Values(context.Context) (map[string]string, error) {
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, event any) error {
	args := m.Called(ctx, topic, event)
	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	return nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newService(t *testing.T, opts Options, overrides staticOverrides) *Service {
	t.Helper()
	defs, err := defaults.NewService(zap.NewNop())
	require.NoError(t, err)
	if opts.Mountpoint == "" {
		opts.Mountpoint = t.TempDir()
	}
	svc, err := NewService(opts, defs, overrides, zap.NewNop())
	require.NoError(t, err)
	return svc
}

func TestRegistry_Scan(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()

	writeFile(t, filepath.Join(first, "rc.conf.rcconf"), "hostname=\"box\"\n")
	writeFile(t, filepath.Join(first, "nginx", "nginx.conf.tmpl"), "first\n")
	writeFile(t, filepath.Join(first, "README.md"), "not a template\n")
	writeFile(t, filepath.Join(second, "nginx", "nginx.conf.tmpl"), "second\n")
	writeFile(t, filepath.Join(second, "hosts.shell"), "echo localhost\n")

	missing := filepath.Join(t.TempDir(), "missing")
	builtin := []Template{{Name: "rc.conf", Ext: ".rcconf", Embedded: true}}
	r := NewRegistry([]string{first, missing, second}, DefaultRenderers(), builtin, zap.NewNop())
	require.NoError(t, r.Scan())

	assert.Equal(t, []string{"hosts", "nginx/nginx.conf", "rc.conf"}, r.Names())

	tpl, err := r.Lookup("nginx/nginx.conf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(first, "nginx", "nginx.conf.tmpl"), tpl.Path)

	tpl, err = r.Lookup("rc.conf")
	require.NoError(t, err)
	assert.False(t, tpl.Embedded, "plugin directories take precedence over builtin templates")

	_, err = r.Lookup("README")
	assert.ErrorIs(t, err, ErrNoSuchFile)
}

func TestRegistry_Renderer(t *testing.T) {
	r := NewRegistry(nil, DefaultRenderers(), nil, zap.NewNop())
	_, err := r.Renderer(Template{Name: "x", Ext: ".mako"})
	assert.ErrorIs(t, err, ErrNoRenderer)
}

func TestService_RenderEmbedded(t *testing.T) {
	svc := newService(t, Options{}, staticOverrides{"hostname": "nas01", "zfs_enable": "YES"})

	files := svc.ManagedFiles()
	require.Len(t, files, 1)
	assert.True(t, files[0].Embedded)

	data, err := svc.Render(context.Background(), "rc.conf")
	require.NoError(t, err)

	doc, err := rcconf.Parse(bytes.NewReader(data))
	require.NoError(t, err)
	m := doc.Map()
	assert.Equal(t, "nas01", m["hostname"])
	assert.Equal(t, "YES", m["zfs_enable"])
	assert.Equal(t, "NONE", m["sendmail_enable"])
	assert.Contains(t, string(data), "# Do not put settings here that are configurable from the GUI.\n")
}

func TestService_RenderTemplates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ntp.conf.tmpl"),
		"{{ if enabled .Vars.ntpd_enable }}server pool.ntp.org{{ end }}\n"+
			"# host {{ .Vars.hostname }} ({{ len .Overrides }} overrides)\n")
	writeFile(t, filepath.Join(dir, "loader.conf.tmpl"), "{{ .Vars.no_such_key }}\n")
	writeFile(t, filepath.Join(dir, "hosts.shell"), "echo \"127.0.0.1 $hostname $ETC_FILE\"\n")
	writeFile(t, filepath.Join(dir, "fail.shell"), "echo broken >&2; exit 3\n")

	svc := newService(t, Options{PluginDirs: []string{dir}}, staticOverrides{"hostname": "nas01"})
	ctx := context.Background()

	data, err := svc.Render(ctx, "ntp.conf")
	require.NoError(t, err)
	assert.Equal(t, "server pool.ntp.org\n# host nas01 (1 overrides)\n", string(data))

	_, err = svc.Render(ctx, "loader.conf")
	assert.ErrorContains(t, err, "no_such_key")

	data, err = svc.Render(ctx, "hosts")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1 nas01 hosts\n", string(data))

	_, err = svc.Render(ctx, "fail")
	assert.ErrorContains(t, err, "broken")

	_, err = svc.Render(ctx, "nope")
	assert.ErrorIs(t, err, ErrNoSuchFile)
}

func TestService_RenderBadRCConf(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "rc.conf.rcconf"), "hostname=\"unterminated\n")

	svc := newService(t, Options{PluginDirs: []string{dir}}, staticOverrides{})
	_, err := svc.Render(context.Background(), "rc.conf")

	var syntaxErr *rcconf.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, 1, syntaxErr.Line)
}

func TestShellRenderer_SkipsReservedNames(t *testing.T) {
	env := Env{
		Name: "hosts",
		Vars: map[string]string{
			"hostname":   "nas01",
			"PATH":       "/nonexistent",
			"IFS":        "o",
			"ETC_FILE":   "other",
			"LD_PRELOAD": "/tmp/evil.so",
		},
	}
	src := []byte("echo \"$hostname $ETC_FILE\"\n" +
		"[ \"${LD_PRELOAD:-}\" = /tmp/evil.so ] && echo leaked\n" +
		"command -v sh >/dev/null && echo found\n")

	data, err := ShellRenderer{Shell: "/bin/sh"}.Render(context.Background(), Template{Name: "hosts", Ext: ".shell"}, src, env)
	require.NoError(t, err)
	assert.Equal(t, "nas01 hosts\nfound\n", string(data))
}

func TestService_OnGenerated(t *testing.T) {
	svc := newService(t, Options{}, staticOverrides{})

	var got []Generated
	svc.OnGenerated(func(g Generated) { got = append(got, g) })

	_, err := svc.GenerateFile(context.Background(), "rc.conf")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "rc.conf", got[0].Name)

	_, err = svc.GenerateFile(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNoSuchFile)
	assert.Len(t, got, 1, "failed renders are not reported")
}

func TestService_GenerateFile(t *testing.T) {
	mount := t.TempDir()
	client := new(mocks.Client)
	pub := new(mockPublisher)

	svc := newService(t, Options{
		Mountpoint: mount,
		Storage:    client,
		Bucket:     "etc",
		Publisher:  pub,
	}, staticOverrides{"hostname": "nas01"})

	expected, err := svc.Render(context.Background(), "rc.conf")
	require.NoError(t, err)

	client.On("PutObject", mock.Anything, "etc", "generated/rc.conf", mock.Anything, int64(len(expected)), mock.Anything).
		Return(minio.UploadInfo{}, nil).Once()
	pub.On("Publish", mock.Anything, events.TopicFileGenerated, mock.MatchedBy(func(e events.FileGenerated) bool {
		return e.Name == "rc.conf" && e.Published && e.Size == len(expected)
	})).Return(nil).Once()

	res, err := svc.GenerateFile(context.Background(), "rc.conf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(mount, "rc.conf"), res.Path)
	assert.True(t, res.Published)

	written, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, expected, written)

	info, err := os.Stat(res.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	entries, err := os.ReadDir(mount)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")

	client.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestService_GenerateFile_PublishFailure(t *testing.T) {
	client := new(mocks.Client)
	client.On("PutObject", mock.Anything, "etc", "generated/rc.conf", mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, assert.AnError)

	svc := newService(t, Options{Storage: client, Bucket: "etc"}, staticOverrides{})
	res, err := svc.GenerateFile(context.Background(), "rc.conf")
	assert.ErrorIs(t, err, assert.AnError)
	require.NotNil(t, res)
	assert.False(t, res.Published)
	assert.FileExists(t, res.Path)
}

func TestService_GenerateAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "nginx", "nginx.conf.tmpl"), "server_name {{ .Vars.hostname }};\n")
	writeFile(t, filepath.Join(dir, "broken.tmpl"), "{{ .Vars.missing }}\n")

	mount := t.TempDir()
	svc := newService(t, Options{Mountpoint: mount, PluginDirs: []string{dir}}, staticOverrides{})

	results, err := svc.GenerateAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	require.Len(t, results, 2)
	assert.Equal(t, "nginx/nginx.conf", results[0].Name)
	assert.Equal(t, "rc.conf", results[1].Name)

	data, err := os.ReadFile(filepath.Join(mount, "nginx", "nginx.conf"))
	require.NoError(t, err)
	assert.Equal(t, "server_name freenas;\n", string(data))
	assert.NoFileExists(t, filepath.Join(mount, "broken"))
}

func TestService_Rescan(t *testing.T) {
	dir := t.TempDir()
	svc := newService(t, Options{PluginDirs: []string{dir}}, staticOverrides{})
	assert.Len(t, svc.ManagedFiles(), 1)

	writeFile(t, filepath.Join(dir, "motd.tmpl"), "welcome\n")
	require.NoError(t, svc.Rescan())
	assert.Len(t, svc.ManagedFiles(), 2)
}

func setupTestApp(t *testing.T) (*fiber.App, string) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "motd.tmpl"), "Welcome to {{ .Vars.hostname }}\n")

	mount := t.TempDir()
	feature := NewFeature(newService(t, Options{Mountpoint: mount, PluginDirs: []string{dir}}, staticOverrides{}))
	assert.Equal(t, "generate", feature.Name())
	assert.True(t, feature.IsEnabled())

	app := fiber.New()
	require.NoError(t, feature.Load(app))
	return app, mount
}

func TestHandlers(t *testing.T) {
	app, mount := setupTestApp(t)

	t.Run("ManagedFiles", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/generate/files", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var files []Template
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&files))
		require.Len(t, files, 2)
		assert.Equal(t, "motd", files[0].Name)
	})

	t.Run("Render", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/generate/files/motd", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "Welcome to freenas\n", string(body))

		resp, err = app.Test(httptest.NewRequest("GET", "/generate/files/unknown", nil))
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})

	t.Run("GenerateFile", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("POST", "/generate/files/motd", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.FileExists(t, filepath.Join(mount, "motd"))
	})

	t.Run("GenerateAll", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("POST", "/generate", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.FileExists(t, filepath.Join(mount, "rc.conf"))
	})

	t.Run("Rescan", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("POST", "/generate/rescan", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})
}

func TestRPC(t *testing.T) {
	srv, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: -1})
	require.NoError(t, err)
	srv.Start()
	t.Cleanup(srv.Shutdown)
	require.True(t, srv.ReadyForConnections(5*time.Second))

	nc, err := events.Connect(srv.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	mount := t.TempDir()
	svc := newService(t, Options{Mountpoint: mount}, staticOverrides{"hostname": "nas01"})

	d := events.NewDispatcher(nc, events.Config{Queue: "etcd", RequestTimeoutSeconds: 5}, zap.NewNop())
	defer d.Close()
	require.NoError(t, RegisterRPC(d, svc))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var files []Template
	require.NoError(t, events.Call(ctx, nc, SubjectGetManagedFiles, nil, &files))
	require.Len(t, files, 1)
	assert.Equal(t, "rc.conf", files[0].Name)

	var generated Generated
	require.NoError(t, events.Call(ctx, nc, SubjectGenerateFile, FileRequest{Name: "rc.conf"}, &generated))
	assert.Equal(t, filepath.Join(mount, "rc.conf"), generated.Path)

	err = events.Call(ctx, nc, SubjectGenerateFile, FileRequest{Name: "missing"}, nil)
	var remote *events.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Contains(t, remote.Msg, "no such file")

	var all AllResponse
	require.NoError(t, events.Call(ctx, nc, SubjectGenerateAll, nil, &all))
	assert.Len(t, all.Generated, 1)
	assert.Empty(t, all.Errors)

	require.NoError(t, events.Call(ctx, nc, SubjectRescanPlugins, nil, &files))
	assert.Len(t, files, 1)
}
