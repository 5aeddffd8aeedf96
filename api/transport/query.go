package transport

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/jw164/MP3/domain"
	"github.com/jw164/MP3/repository"
)

// ParseQuery decodes the where/sort/select/skip/limit/count parameters into a
// declarative query. Structured parameters must be JSON objects; anything
// malformed fails with the invalid-query error.
func ParseQuery(args *fasthttp.Args) (repository.Query, error) {
	var q repository.Query
	var err error

	if q.Filter, err = parseJSONObject(args.Peek("where")); err != nil {
		return q, err
	}
	if q.Sort, err = parseJSONObject(args.Peek("sort")); err != nil {
		return q, err
	}
	if q.Projection, err = parseJSONObject(args.Peek("select")); err != nil {
		return q, err
	}
	if q.Skip, err = parseNonNegative(args.Peek("skip")); err != nil {
		return q, err
	}
	if q.Limit, err = parseNonNegative(args.Peek("limit")); err != nil {
		return q, err
	}
	q.Count = strings.EqualFold(string(args.Peek("count")), "true")

	return q, nil
}

// ParseProjection decodes the select parameter used on get-by-id requests.
func ParseProjection(args *fasthttp.Args) (map[string]interface{}, error) {
	return parseJSONObject(args.Peek("select"))
}

func parseJSONObject(raw []byte) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, domain.ErrInvalidQuery
	}
	return obj, nil
}

func parseNonNegative(raw []byte) (int64, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || n < 0 {
		return 0, domain.NewError(domain.ErrCodeQuery, "skip and limit must be non-negative integers")
	}
	return n, nil
}
