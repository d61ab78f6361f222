package params

import (
	"net/http"
	"net/url"

	"github.com/DMarby/instafilter/internal/hmac"
)

const hmacParam = "hmac"

// HMAC signs a URL path and its query params, returning the path with the signature appended as a query param
func HMAC(h *hmac.HMAC, path string, query url.Values) (string, error) {
	query.Del(hmacParam)

	mac, err := h.Create(path + BuildQuery(query))
	if err != nil {
		return "", err
	}

	query.Set(hmacParam, mac)
	return path + BuildQuery(query), nil
}

// ValidateHMAC validates the URL path and query params of a request against the signature in its hmac query param
func ValidateHMAC(h *hmac.HMAC, r *http.Request) (bool, error) {
	query := r.URL.Query()

	mac := query.Get(hmacParam)
	if mac == "" {
		return false, nil
	}

	query.Del(hmacParam)
	return h.Validate(r.URL.Path+BuildQuery(query), mac)
}
