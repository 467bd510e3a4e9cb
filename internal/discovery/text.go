package discovery

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/proxyfinder/internal/model"
)

// ParseList reads one proxy per line in "host:port" or
// "protocol://host:port" form. Lines without a scheme get
// defaultProtocol. Blank lines and lines starting with '#' are skipped,
// as are lines that do not parse.
func ParseList(r io.Reader, defaultProtocol model.Protocol) ([]model.Candidate, error) {
	var out []model.Candidate

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		c, err := model.ParseCandidate(line, defaultProtocol)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan proxy list: %w", err)
	}

	return out, nil
}

// parseListBytes is ParseList over an in-memory body.
func parseListBytes(body []byte, defaultProtocol model.Protocol) ([]model.Candidate, error) {
	return ParseList(bytes.NewReader(body), defaultProtocol)
}
