package core

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP возвращает функцию определения адреса клиента для rate limit.
// X-Forwarded-For учитывается только если запрос пришёл от доверенного прокси,
// иначе клиент мог бы сам выбирать себе ключ ограничителя (OWASP A05).
func ClientIP(trustedProxies []string) func(r *http.Request) string {
	trusted := parseTrusted(trustedProxies)

	return func(r *http.Request) string {
		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err != nil || host == "" {
			host = strings.TrimSpace(r.RemoteAddr)
		}
		ip := net.ParseIP(host)
		if ip == nil {
			if host == "" {
				return "unknown"
			}
			return host
		}
		if !isTrusted(trusted, ip) {
			return ip.String()
		}

		// Идём справа налево: последний недоверенный адрес и есть клиент
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			parts := strings.Split(forwarded, ",")
			for i := len(parts) - 1; i >= 0; i-- {
				candidate := net.ParseIP(strings.TrimSpace(parts[i]))
				if candidate == nil {
					continue
				}
				if !isTrusted(trusted, candidate) || i == 0 {
					return candidate.String()
				}
			}
		}
		if realIP := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); realIP != nil {
			return realIP.String()
		}
		return ip.String()
	}
}

// FromTrustedProxy — запрос пришёл напрямую от доверенного прокси
func FromTrustedProxy(trustedProxies []string) func(r *http.Request) bool {
	trusted := parseTrusted(trustedProxies)
	return func(r *http.Request) bool {
		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err != nil {
			host = strings.TrimSpace(r.RemoteAddr)
		}
		ip := net.ParseIP(host)
		return ip != nil && isTrusted(trusted, ip)
	}
}

func parseTrusted(list []string) []*net.IPNet {
	trusted := make([]*net.IPNet, 0, len(list))
	for _, ipStr := range list {
		ipStr = strings.TrimSpace(ipStr)
		_, ipNet, err := net.ParseCIDR(ipStr)
		if err != nil {
			// Для одиночных IP
			ip := net.ParseIP(ipStr)
			if ip == nil {
				LogError("Некорректный адрес доверенного прокси", map[string]interface{}{"value": ipStr})
				continue
			}
			bits := 8 * len(ip)
			if v4 := ip.To4(); v4 != nil {
				ip, bits = v4, 32
			}
			ipNet = &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}
		}
		trusted = append(trusted, ipNet)
	}
	return trusted
}

func isTrusted(trusted []*net.IPNet, ip net.IP) bool {
	for _, ipNet := range trusted {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}
