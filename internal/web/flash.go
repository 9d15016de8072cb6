package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	flashCookie   = "messages"
	ctxFlashes    = "flashes"
	ctxNewFlashes = "new_flashes"
)

type flash struct {
	Level string `json:"l"`
	Text  string `json:"t"`
}

// loadFlashes moves messages queued by the previous response into the
// request and clears the cookie.
func (s *Server) loadFlashes() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(flashCookie)
		if err == nil && raw != "" {
			c.Set(ctxFlashes, decodeFlashes(raw))
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(flashCookie, "", -1, "/", "", s.opts.CookieSecure, true)
		}
		c.Next()
	}
}

// addFlash queues a message for the next rendered page.
func (s *Server) addFlash(c *gin.Context, level, text string) {
	var pending []flash
	if v, ok := c.Get(ctxNewFlashes); ok {
		pending, _ = v.([]flash)
	}
	pending = append(pending, flash{Level: level, Text: text})
	c.Set(ctxNewFlashes, pending)

	payload, err := json.Marshal(pending)
	if err != nil {
		s.logger.Error("encode flash", "error", err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, base64.RawURLEncoding.EncodeToString(payload), 0, "/", "", s.opts.CookieSecure, true)
}

// takeFlashes returns the messages carried over from the previous response.
func takeFlashes(c *gin.Context) []flash {
	var out []flash
	if v, ok := c.Get(ctxFlashes); ok {
		prev, _ := v.([]flash)
		out = append(out, prev...)
	}
	return out
}

func decodeFlashes(raw string) []flash {
	payload, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var out []flash
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil
	}
	return out
}
