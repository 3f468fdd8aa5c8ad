// Package templates holds the page layout shared by the components in pages.
package templates
