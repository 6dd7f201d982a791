package http

import (
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
)

// Forwarding headers are honoured only from loopback and private ranges,
// where a local reverse proxy would sit.
var trustedProxies = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
}

func fromTrustedProxy(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range trustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// extractClientIP returns the peer address, or the first forwarded address
// when the peer is a trusted proxy.
func extractClientIP(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	addr, err := netip.ParseAddr(peer)
	if err != nil || !fromTrustedProxy(addr) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if fwd, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return fwd.String()
		}
	}
	if fwd, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return fwd.String()
	}
	return peer
}

// Reasons reported by suspiciousReason, used as the metric label.
const (
	reasonTraversal = "traversal"
	reasonScanPath  = "scan_path"
	reasonInjection = "injection"
	reasonScanner   = "scanner"
	reasonMethod    = "method"
	reasonExpenseID = "expense_id"
	reasonOversize  = "oversize"
)

const (
	maxURLLength   = 2048
	maxForwardHops = 5
	expensePrefix  = "/api/expenses/"
)

var (
	traversalMarkers = []string{"../", "..\\", "%2e%2e", "etc/passwd"}

	// Paths scanners try on any host; nothing here serves them.
	scannedPaths = []string{
		"/.env", "/.git", "/.ssh", "/wp-admin", "/wp-login", "/phpmyadmin",
		".php", "/cgi-bin", "/actuator", "/server-status",
	}

	injectionMarkers = []string{
		"<script", "javascript:", "union select", "' or '1'='1", "eval(", ";--",
	}

	scannerAgents = []string{
		"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan", "zgrab", "nuclei",
	}

	unusualMethods = map[string]bool{
		"TRACE": true, "TRACK": true, "DEBUG": true, "CONNECT": true,
	}
)

// suspiciousReason classifies requests worth a warning. It returns "" for
// ordinary traffic. Nothing is blocked on this basis.
func suspiciousReason(r *http.Request) string {
	if unusualMethods[r.Method] {
		return reasonMethod
	}
	if len(r.URL.String()) > maxURLLength {
		return reasonOversize
	}
	if strings.Count(r.Header.Get("X-Forwarded-For"), ",") >= maxForwardHops {
		return reasonOversize
	}

	path := strings.ToLower(r.URL.Path)
	raw := strings.ToLower(r.URL.RawPath + "?" + r.URL.RawQuery)
	query, err := url.QueryUnescape(r.URL.RawQuery)
	if err != nil {
		query = r.URL.RawQuery
	}
	query = strings.ToLower(query)
	for _, m := range traversalMarkers {
		if strings.Contains(path, m) || strings.Contains(raw, m) {
			return reasonTraversal
		}
	}
	for _, p := range scannedPaths {
		if strings.Contains(path, p) {
			return reasonScanPath
		}
	}
	for _, m := range injectionMarkers {
		if strings.Contains(path, m) || strings.Contains(query, m) {
			return reasonInjection
		}
	}

	if id, ok := strings.CutPrefix(r.URL.Path, expensePrefix); ok && !plausibleExpenseID(id) {
		return reasonExpenseID
	}

	agent := strings.ToLower(r.Header.Get("User-Agent"))
	for _, a := range scannerAgents {
		if strings.Contains(agent, a) {
			return reasonScanner
		}
	}
	return ""
}

// plausibleExpenseID accepts the ids the store issues: letters, digits and
// hyphens.
func plausibleExpenseID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
		default:
			return false
		}
	}
	return true
}
