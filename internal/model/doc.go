// Package model defines the CRM entities shared by the store, the feature
// services and both transports.
package model
