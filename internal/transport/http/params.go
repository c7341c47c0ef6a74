package transporthttp

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"example.com/ewm/internal/apperr"
	"example.com/ewm/internal/datetime"
	"example.com/ewm/internal/domain"
)

func decodeJSONStrict(r *http.Request, v any) error {
	defer DrainBody(r)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Validation("Malformed JSON body: %v", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Field: %s. Error: must be a positive integer. Value: %s", name, raw)
	}
	return id, nil
}

// queryList returns every value of name, splitting comma-separated values.
func queryList(q url.Values, name string) []string {
	var out []string
	for _, v := range q[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func queryIDs(q url.Values, name string) ([]int64, error) {
	raw := queryList(q, name)
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, apperr.Validation("Field: %s. Error: must be a list of integers. Value: %s", name, s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func queryInt(q url.Values, name string, def, min int) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min {
		return 0, apperr.Validation("Field: %s. Error: must be an integer >= %d. Value: %s", name, min, raw)
	}
	return n, nil
}

func queryBool(q url.Values, name string) (*bool, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Validation("Field: %s. Error: must be true or false. Value: %s", name, raw)
	}
	return &b, nil
}

func queryTime(q url.Values, name string) (*time.Time, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	t, err := datetime.Parse(raw)
	if err != nil {
		return nil, apperr.Validation("Field: %s. Error: %v. Value: %s", name, err, raw)
	}
	return &t, nil
}

// queryPage reads from (>= 0, default 0) and size (> 0, default 10).
func queryPage(q url.Values) (domain.Page, error) {
	from, err := queryInt(q, "from", 0, 0)
	if err != nil {
		return domain.Page{}, err
	}
	size, err := queryInt(q, "size", domain.DefaultPageSize, 1)
	if err != nil {
		return domain.Page{}, err
	}
	return domain.Page{From: from, Size: size}, nil
}

// clientIP is the remote address without its port. Behind a trusted proxy
// RealIP has already applied forwarding headers.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
