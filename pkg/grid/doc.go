// Package grid sorts, filters and pages a collection snapshot for display.
package grid
