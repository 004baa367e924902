package model

import (
	"errors"
	"fmt"
)

// Category names one tracked dimension of the report.
type Category string

const (
	CategoryIP        Category = "ip"
	CategoryStatus    Category = "status"
	CategoryRequest   Category = "req"
	CategoryReferrer  Category = "referrer"
	CategoryUserAgent Category = "useragent"
	CategoryUserReq   Category = "userreq"
	CategorySitemap   Category = "sitemap"
)

// ErrUnknownCategory is returned when a name is not one of the tracked categories.
var ErrUnknownCategory = errors.New("unknown category")

// Categories returns every category in report order.
func Categories() []Category {
	return []Category{
		CategoryIP,
		CategoryStatus,
		CategoryRequest,
		CategoryReferrer,
		CategoryUserAgent,
		CategoryUserReq,
		CategorySitemap,
	}
}

// ParseCategory converts a configuration name into a Category.
func ParseCategory(name string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// ReportKey is the key a category is emitted under, e.g. "Top ip".
func (c Category) ReportKey() string {
	return "Top " + string(c)
}
