// Package models contains the domain types shared by the SQL and document stores.
package models
