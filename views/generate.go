// Package views holds the templ sources for the pages and components. The
// _templ.go files are generated and committed; regenerate after editing a
// .templ file.
package views

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.977 generate
