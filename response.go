package dax

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gertd/go-pluralize"
	"github.com/google/uuid"
)

var pluralizer = pluralize.NewClient()

// Standard RESTful link relations.
const (
	RelSelf       = "self"
	RelCollection = "collection"
	RelCreate     = "create"
	RelUpdate     = "update"
	RelDelete     = "delete"
	RelNext       = "next"
	RelPrev       = "prev"
)

// Link represents a HATEOAS link returned in JSON envelopes.
type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// SuccessResponse defines the envelope for successful responses.
type SuccessResponse struct {
	Data  interface{} `json:"data"`
	Meta  interface{} `json:"meta,omitempty"`
	Links []Link      `json:"links,omitempty"`
}

// ErrorPayload defines the internal structure of the error object.
type ErrorPayload struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details []ValidationError `json:"details,omitempty"`
}

// ErrorResponse defines the envelope for error responses.
type ErrorResponse struct {
	Error ErrorPayload `json:"error"`
}

// PageMeta carries pagination totals in the response envelope's meta field.
type PageMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Respond sends a successful JSON response with an explicit status code.
func Respond(w http.ResponseWriter, code int, data interface{}, meta interface{}) {
	if code == http.StatusNoContent {
		w.WriteHeader(code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(SuccessResponse{Data: data, Meta: meta})
}

// RespondSuccess sends a 200 JSON response with optional HATEOAS links.
func RespondSuccess(w http.ResponseWriter, data interface{}, links ...Link) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(SuccessResponse{Data: data, Links: links})
}

// RespondPage sends one page of results with pagination meta and next/prev
// links derived from the page's position.
func RespondPage[T any](w http.ResponseWriter, page Page[T], basePath string) {
	meta := PageMeta{
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      page.Total,
		TotalPages: page.TotalPages(),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(SuccessResponse{
		Data:  page.Items,
		Meta:  meta,
		Links: PagingLinksFor(basePath, page.Page, page.PageSize, page.TotalPages()),
	})
}

// Error sends a JSON error response with structured validation errors.
func Error(w http.ResponseWriter, code int, errorCode string, message string, details ...ValidationError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorPayload{
			Code:    errorCode,
			Message: message,
			Details: details,
		},
	})
}

// RespondError sends an error payload using the status text as error code.
func RespondError(w http.ResponseWriter, code int, message string) {
	Error(w, code, http.StatusText(code), message)
}

// Linkable exposes resource identity information for link builders.
type Linkable interface {
	GetID() uuid.UUID
	ResourceType() string
}

// Pluralize converts a singular resource type into its plural form.
func Pluralize(singular string) string {
	return pluralizer.Plural(singular)
}

// Singularize converts a plural resource type into its singular form.
func Singularize(plural string) string {
	return pluralizer.Singular(plural)
}

// RESTfulLinksFor generates standard CRUD links for a resource object.
func RESTfulLinksFor(obj Linkable, basePath ...string) []Link {
	plural := Pluralize(obj.ResourceType())
	base := ""
	if len(basePath) > 0 {
		base = basePath[0]
	}
	resourcePath := fmt.Sprintf("%s/%s", base, plural)
	itemPath := fmt.Sprintf("%s/%s", resourcePath, obj.GetID().String())
	return []Link{
		{Rel: RelSelf, Href: itemPath},
		{Rel: RelUpdate, Href: itemPath},
		{Rel: RelDelete, Href: itemPath},
		{Rel: RelCollection, Href: resourcePath},
	}
}

// CollectionLinksFor generates collection links for a resource type.
func CollectionLinksFor(resourceType string, basePath ...string) []Link {
	plural := Pluralize(resourceType)
	base := ""
	if len(basePath) > 0 {
		base = basePath[0]
	}
	resourcePath := fmt.Sprintf("%s/%s", base, plural)
	return []Link{
		{Rel: RelSelf, Href: resourcePath},
		{Rel: RelCreate, Href: resourcePath},
	}
}

// PagingLinksFor generates self/next/prev links for a paged collection.
func PagingLinksFor(basePath string, page, pageSize, totalPages int) []Link {
	links := []Link{
		{Rel: RelSelf, Href: pageHref(basePath, page, pageSize)},
	}
	if page < totalPages {
		links = append(links, Link{Rel: RelNext, Href: pageHref(basePath, page+1, pageSize)})
	}
	if page > 1 {
		links = append(links, Link{Rel: RelPrev, Href: pageHref(basePath, page-1, pageSize)})
	}
	return links
}

func pageHref(basePath string, page, pageSize int) string {
	return fmt.Sprintf("%s?page=%d&page_size=%d", basePath, page, pageSize)
}

// RespondWithLinks responds with a canonical CRUD link set for the resource.
func RespondWithLinks(w http.ResponseWriter, obj Linkable) {
	RespondSuccess(w, obj, RESTfulLinksFor(obj)...)
}

// RespondCollection responds with collection links for the given resource type.
func RespondCollection(w http.ResponseWriter, data interface{}, resourceType string) {
	RespondSuccess(w, data, CollectionLinksFor(resourceType)...)
}
