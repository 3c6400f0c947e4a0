package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoEventHub/GoEventHub/internal/apperror"
	"github.com/GoEventHub/GoEventHub/internal/auth"
	"github.com/GoEventHub/GoEventHub/internal/web/navigation"
	"github.com/GoEventHub/GoEventHub/internal/web/view"
)

// ErrNilServices is returned by Init when a required collaborator is missing.
var ErrNilServices = errors.New(ErrNilACDFatalLogMsg)

// Validate is shared by all form handlers.
var Validate = validator.New() //nolint:gochecknoglobals

// Notice texts shown after a redirect, keyed by the "done" query parameter.
var notices = map[string]string{ //nolint:gochecknoglobals
	"registered":  "You are registered. A confirmation is on its way.",
	"cancelled":   "Your registration was cancelled.",
	"checkedin":   "You are checked in. Enjoy the event!",
	"created":     "Saved.",
	"updated":     "Changes saved.",
	"deleted":     "Deleted.",
	"activated":   "The account was activated.",
	"deactivated": "The account was deactivated.",
	"welcome":     "Welcome! Your account was created.",
	"password":    "Your password was changed.",
}

// Notice returns the text for the "done" query parameter of the request.
func Notice(c *fiber.Ctx) string {
	return notices[c.Query("done")]
}

// ParamID parses a positive numeric route parameter.
func ParamID(c *fiber.Ctx, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.ErrNotFound
	}

	return id, nil
}

// Paging reads page and pageSize from the query string.
func Paging(c *fiber.Ctx) (page, pageSize int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	pageSize = c.QueryInt("pageSize", DefaultPageSize)
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	return page, pageSize
}

// Fail answers err. Unauthenticated page requests go to the login, API
// requests get JSON, everything else renders the error page.
func Fail(c *fiber.Ctx, r *view.Renderer, err error) error {
	status := apperror.Status(err)
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	if errors.Is(err, apperror.ErrUnauthenticated) || auth.WantsJSON(c) {
		return auth.Deny(c, err)
	}

	page := r.Page(c, navigation.For(navigation.Public, "error", "Error"))
	page.Error = apperror.Message(err)
	page.Data["Status"] = status

	return r.Render(c, status, TemplateError, page)
}

// Pager holds the pagination data of a list template.
type Pager struct {
	CurrentPage int
	PageSize    int
	TotalItems  int64
	TotalPages  int
	HasPrevPage bool
	HasNextPage bool
	PrevPage    int
	NextPage    int
	SearchQuery string
}

// NewPager builds the pagination data for a result page.
func NewPager(page, pageSize int, total int64, totalPages int, search string) Pager {
	if totalPages < 1 {
		totalPages = 1
	}

	return Pager{
		CurrentPage: page,
		PageSize:    pageSize,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasPrevPage: page > 1,
		HasNextPage: page < totalPages,
		PrevPage:    page - 1,
		NextPage:    page + 1,
		SearchQuery: search,
	}
}

// Capitalize upper-cases the first letter of an error text for display.
func Capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}
