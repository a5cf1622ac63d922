// Package store provides the repositories behind the CRM feature modules:
// a PostgreSQL implementation driven by per-entity table descriptors and an
// in-memory implementation used for local runs and tests.
package store
