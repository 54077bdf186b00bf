package defaults

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoad(t *testing.T) {
	doc, err := Load()
	require.NoError(t, err)

	m := doc.Map()
	for _, key := range DocumentedKeys {
		assert.Contains(t, m, key)
	}
	assert.Equal(t, "freenas", m["hostname"])
	assert.Equal(t, []string{"geom_mirror", "geom_multipath"}, doc.Tokens("early_kld_list"))
	assert.False(t, doc.Bool("geli_autodetach"))
	assert.True(t, doc.Bool("syslog_ng_enable"))
}

func TestLoad_Canonical(t *testing.T) {
	doc := MustLoad()
	assert.Equal(t, string(Raw()), doc.String())
}

func TestRaw_IsCopy(t *testing.T) {
	b := Raw()
	b[0] = 'X'
	assert.Equal(t, byte('#'), Raw()[0])
}

func setupTestApp(t *testing.T) *fiber.App {
	svc, err := NewService(zap.NewNop())
	require.NoError(t, err)

	feature := NewFeature(svc)
	assert.Equal(t, "defaults", feature.Name())
	assert.True(t, feature.IsEnabled())

	app := fiber.New()
	require.NoError(t, feature.Load(app))
	return app
}

func TestHandlers(t *testing.T) {
	app := setupTestApp(t)

	t.Run("List", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/defaults", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "NONE", body["sendmail_enable"])
		assert.Len(t, body, len(DocumentedKeys))
	})

	t.Run("Raw", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/defaults/raw", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, Raw(), body)
	})

	t.Run("Get", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/defaults/dumpdir", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "/data/crash", body["value"])
	})

	t.Run("Unknown", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/defaults/zfs_enable", nil))
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})
}
