// Package rcconf reads and writes FreeBSD rc.conf style files.
//
// An rc.conf file is a flat list of shell variable assignments, one per line:
//
//	hostname="freenas"
//	sendmail_enable="NONE"	# Run the sendmail inbound daemon (YES/NO).
//
// Lines starting with '#' are comments and blank lines are allowed. The file is
// sourced by /etc/rc, so when a key is assigned twice the last assignment wins.
//
// # Document
//
// Parse returns a Document that keeps every line, including comments and the
// inline comment of each assignment, so a file can be rewritten without losing
// its documentation. Document.Map collapses it to the key/value mapping that
// the init system sees.
//
// # Serialization
//
// Assignments are always written in canonical form: key="value", with '"',
// '\', '$' and '`' escaped inside the quotes. A document parsed from canonical
// input serializes back to the same bytes.
//
// # Usage
//
//	doc, err := rcconf.ParseFile("/etc/rc.conf")
//	if err != nil {
//	    return err
//	}
//	doc.Set("ntpd_enable", "NO")
//	fmt.Print(doc.String())
package rcconf
