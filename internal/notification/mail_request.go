package notification

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// MailRequest describes one outbound message.
// ToList replaces To when it is not empty. Cc and Bcc prefer the single address over the list.
type MailRequest struct {
	XMLName xml.Name `xml:"MailRequest"`
	To      string   `xml:"To,omitempty"`
	ToList  []string `xml:"ToList>Address,omitempty"`
	Cc      string   `xml:"Cc,omitempty"`
	CcList  []string `xml:"CcList>Address,omitempty"`
	Bcc     string   `xml:"Bcc,omitempty"`
	BccList []string `xml:"BccList>Address,omitempty"`
	Subject string   `xml:"Subject"`
	Body    string   `xml:"Body"`
}

// Recipients resolves the To, Cc and Bcc address lists
func (r MailRequest) Recipients() (to, cc, bcc []string) {
	if len(r.ToList) > 0 {
		to = trimAll(r.ToList)
	} else if strings.TrimSpace(r.To) != "" {
		to = []string{strings.TrimSpace(r.To)}
	}
	return to, singleOrList(r.Cc, r.CcList), singleOrList(r.Bcc, r.BccList)
}

func singleOrList(single string, list []string) []string {
	if s := strings.TrimSpace(single); s != "" {
		return []string{s}
	}
	return trimAll(list)
}

func trimAll(list []string) []string {
	var out []string
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ParseMailRequest decodes a MailRequest XML document
func ParseMailRequest(r io.Reader) (*MailRequest, error) {
	var req MailRequest
	if err := xml.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("decode mail request: %w", err)
	}
	return &req, nil
}

// LoadMailRequest reads a MailRequest XML file
func LoadMailRequest(path string) (*MailRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mail request: %w", err)
	}
	defer f.Close()

	return ParseMailRequest(f)
}
