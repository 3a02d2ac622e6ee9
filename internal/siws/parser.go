package siws

import (
	"net/url"
	"strconv"
	"strings"
)

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// lineScanner walks the message one line at a time. The grammar is strictly
// ordered, so the scanner never backtracks.
type lineScanner struct {
	lines []string
	pos   int
}

func (s *lineScanner) done() bool {
	return s.pos >= len(s.lines)
}

func (s *lineScanner) peek() (string, bool) {
	if s.done() {
		return "", false
	}
	return s.lines[s.pos], true
}

func (s *lineScanner) next() (string, bool) {
	line, ok := s.peek()
	if ok {
		s.pos += 1
	}
	return line, ok
}

func (s *lineScanner) expectEmpty() error {
	line, ok := s.next()
	if !ok {
		return errMalformed(s.pos, "unexpected end of message, expected empty line")
	}
	if line != "" {
		return errMalformed(s.pos-1, "expected empty line")
	}
	return nil
}

// field consumes a mandatory "Tag: value" line.
func (s *lineScanner) field(tag string) (string, error) {
	line, ok := s.next()
	if !ok {
		return "", errMalformed(s.pos, "unexpected end of message, expected "+strconv.Quote(tag))
	}

	value, found := strings.CutPrefix(line, tag)
	if !found {
		return "", errMalformed(s.pos-1, "expected "+strconv.Quote(tag))
	}

	if value == "" {
		return "", errMalformed(s.pos-1, strconv.Quote(tag)+" has no value")
	}

	return value, nil
}

// optionalField consumes a "Tag: value" line only if the next line carries the
// tag.
func (s *lineScanner) optionalField(tag string) (string, error) {
	line, ok := s.peek()
	if !ok || !strings.HasPrefix(line, tag) {
		return "", nil
	}

	return s.field(tag)
}

// ParsePayload parses canonical message text back into a payload. It fails
// with MALFORMED_MESSAGE whenever the text does not follow the grammar;
// field-level constraints are left to ValidatePayload.
func ParsePayload(text string) (*Payload, error) {
	s := &lineScanner{lines: strings.Split(text, "\n")}
	p := &Payload{}

	header, _ := s.next()
	domain, found := strings.CutSuffix(header, headerSuffix)
	if !found {
		return nil, errMalformed(0, "first line does not end in "+strconv.Quote(headerSuffix))
	}
	if domain == "" {
		return nil, errMalformed(0, "domain is empty")
	}
	p.Domain = domain

	address, ok := s.next()
	if !ok || address == "" {
		return nil, errMalformed(1, "missing address")
	}
	if !IsValidAddress(address) {
		return nil, errMalformed(1, "address is not base58")
	}
	p.Address = address

	if err := s.expectEmpty(); err != nil {
		return nil, err
	}

	statement, ok := s.next()
	if !ok {
		return nil, errMalformed(s.pos, "unexpected end of message")
	}
	if statement != "" {
		p.Statement = statement
		if err := s.expectEmpty(); err != nil {
			return nil, err
		}
	}

	var err error

	uriLine := s.pos
	if p.URI, err = s.field(tagURI); err != nil {
		return nil, err
	}
	if !isURIToken(p.URI) {
		return nil, errMalformed(uriLine, "URI is not a valid URI")
	}

	versionLine := s.pos
	if p.Version, err = s.field(tagVersion); err != nil {
		return nil, err
	}
	if !isDigits(p.Version) {
		return nil, errMalformed(versionLine, "Version is not a number")
	}

	chainLine := s.pos
	chainID, err := s.field(tagChainID)
	if err != nil {
		return nil, err
	}
	cid, convErr := strconv.Atoi(chainID)
	if convErr != nil || strconv.Itoa(cid) != chainID {
		return nil, errMalformed(chainLine, "Chain ID is not a canonical integer")
	}
	p.ChainID = ChainID(cid)

	if p.Nonce, err = s.field(tagNonce); err != nil {
		return nil, err
	}

	if p.IssuedAt, err = s.field(tagIssuedAt); err != nil {
		return nil, err
	}

	if p.ExpirationTime, err = s.optionalField(tagExpirationTime); err != nil {
		return nil, err
	}

	if p.NotBefore, err = s.optionalField(tagNotBefore); err != nil {
		return nil, err
	}

	if p.RequestID, err = s.optionalField(tagRequestID); err != nil {
		return nil, err
	}

	if line, ok := s.peek(); ok && line == tagResources {
		s.next()
		p.Resources = []string{}

		for {
			line, ok := s.peek()
			if !ok || !strings.HasPrefix(line, resourceBullet) {
				break
			}
			s.next()

			resource := strings.TrimPrefix(line, resourceBullet)
			if resource == "" {
				return nil, errMalformed(s.pos-1, "empty resource")
			}
			p.Resources = append(p.Resources, resource)
		}
	}

	if !s.done() {
		return nil, errMalformed(s.pos, "unexpected line")
	}

	return p, nil
}

func isURIToken(value string) bool {
	if strings.ContainsAny(value, " \t") {
		return false
	}

	u, err := url.Parse(value)
	return err == nil && u.IsAbs()
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, c := range value {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
