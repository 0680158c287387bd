// Package domain contains the core business entities of the reminder
// pipeline, independent of any specific storage or transport mechanism.
package domain
