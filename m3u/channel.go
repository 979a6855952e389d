package m3u

import (
	"fmt"
	"io"
	"strings"
)

// Channel is the resolved, in-memory representation of one playlist entry.
// It is constructed per build (or per proxy request), rendered, and discarded.
type Channel struct {
	Name      string
	ID        string
	Number    int
	Logo      string
	URI       string
	UserAgent string
}

// TVGID returns the tvg-id attribute value: the provider id when present,
// otherwise the display name lower-cased with whitespace stripped.
func (c *Channel) TVGID() string {
	if c.ID != "" {
		return c.ID
	}
	return strings.ToLower(strings.Join(strings.Fields(c.Name), ""))
}

// encode writes the channel's playlist record. Attribute order and presence
// rules are fixed for compatibility with tvg-aware players and must not be
// reordered.
func (c *Channel) encode(w io.Writer) error {
	if c.UserAgent != "" {
		if _, err := fmt.Fprintf(w, "#EXTVLCOPT:http-user-agent=%s\n", c.UserAgent); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "#EXTINF: -1 "); err != nil {
		return err
	}

	if c.Number > 0 {
		if _, err := fmt.Fprintf(w, "tvg-chno=\"%d\" ", c.Number); err != nil {
			return err
		}
	}

	if c.Logo != "" {
		if _, err := fmt.Fprintf(w, "tvg-logo=\"%s\" ", c.Logo); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "tvg-id=\"%s\" ", c.TVGID()); err != nil {
		return err
	}

	if c.Name != "" {
		if _, err := fmt.Fprintf(w, "tvg-name=\"%s\" ", c.Name); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, ", %s\n%s\n", c.Name, c.URI); err != nil {
		return err
	}

	return nil
}
