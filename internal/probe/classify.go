package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"

	"github.com/nao1215/proxyfinder/internal/model"
)

// Sentinel errors raised inside a probe and mapped by classify.
var (
	errTooManyRedirects = errors.New("stopped after too many redirects")
	errInvalidURL       = errors.New("invalid target URL")
	errProxyRejected    = errors.New("proxy refused the CONNECT tunnel")
)

// protocolErrorMarkers are fragments of net/http error messages that mean
// the peer sent something that is not valid HTTP.
var protocolErrorMarkers = []string{
	"malformed HTTP",
	"malformed MIME header",
	"bogus",
	"invalid header field",
	"too many transfer encodings",
	"unsupported transfer encoding",
	"server gave HTTP response to HTTPS client",
}

// classify maps a transport error to a failure reason.
// connected reports whether the connection to the proxy had been
// established when the error happened.
func classify(err error, connected bool) string {
	switch {
	case err == nil:
		return ""
	case isTimeout(err) && !connected:
		return model.ReasonConnectTimeout
	case isTimeout(err):
		return model.ReasonReadTimeout
	case errors.Is(err, errTooManyRedirects):
		return model.ReasonTooManyRedirects
	case errors.Is(err, errInvalidURL):
		return model.ReasonInvalidURL
	case isProtocolError(err):
		return model.ReasonHTTPError
	case isConnectionError(err):
		return model.ReasonConnectionError
	default:
		return model.ReasonGenericError
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isProtocolError(err error) bool {
	var protoErr *http.ProtocolError //nolint:staticcheck // still returned by net/http for some malformed input
	if errors.As(err, &protoErr) {
		return true
	}
	msg := err.Error()
	for _, marker := range protocolErrorMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func isConnectionError(err error) bool {
	var (
		opErr     *net.OpError
		dnsErr    *net.DNSError
		addrErr   *net.AddrError
		recordErr tls.RecordHeaderError
		certErr   *tls.CertificateVerificationError
		unknownCA x509.UnknownAuthorityError
		hostErr   x509.HostnameError
	)
	switch {
	case errors.Is(err, errProxyRejected),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, errSOCKS4Rejected),
		errors.Is(err, errSOCKS4BadReply):
		return true
	case errors.As(err, &opErr),
		errors.As(err, &dnsErr),
		errors.As(err, &addrErr),
		errors.As(err, &recordErr),
		errors.As(err, &certErr),
		errors.As(err, &unknownCA),
		errors.As(err, &hostErr):
		return true
	default:
		return false
	}
}
