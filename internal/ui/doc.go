// Package ui styles CLI output: a small lipgloss palette for status lines and bordered summary tables.
package ui
