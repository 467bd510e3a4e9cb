// Package config provides configuration structures and utilities for
// proxyfinder: run defaults, the .proxyfinder YAML file, and XDG paths.
package config
