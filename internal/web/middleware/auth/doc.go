// Package auth provides the session middleware for the web application.
//
// The middleware resolves the session cookie to a user, reloads the user from
// the database and stores it in fiber.Locals for handlers and templates.
// Anonymous requests pass through unchanged, route level permission checks
// decide whether they are allowed.
//
// A session of a user that was deactivated in the meantime is deleted and the
// request is redirected to the login page with a deactivation notice.
//
// Usage:
//
//	app.Use(authmiddleware.New(authmiddleware.Config{DB: db}))
package auth
