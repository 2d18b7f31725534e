// Package util holds small generic helpers shared by the config layers.
package util
