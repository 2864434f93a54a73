// Package migrate loads a directory of goose migrations and applies them to a
// database. Each Set builds its own goose Provider, so sets applied to different
// databases at the same time share no state.
package migrate
