package qr

import (
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

// Generator renders the door-scan QR for a ticket. The code carries only the
// public verify URL; the token inside it is the credential.
type Generator struct {
	baseURL string
	size    int
	level   qrcode.RecoveryLevel
}

func NewQRGenerator(siteBaseURL string) *Generator {
	return &Generator{
		baseURL: strings.TrimRight(siteBaseURL, "/"),
		size:    300,
		level:   qrcode.Medium,
	}
}

// VerifyURL is {site}/verify/{token}.
func (g *Generator) VerifyURL(token string) string {
	return g.baseURL + "/verify/" + url.PathEscape(token)
}

func (g *Generator) PNG(token string) ([]byte, error) {
	return qrcode.Encode(g.VerifyURL(token), g.level, g.size)
}
