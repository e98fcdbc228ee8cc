// Package storage provides identity stores for persistent objects.
//
// This package includes:
//   - GormIdentityStore: a GORM-based store that maps registered models to
//     and from primary-key strings, for use with the StoreID serializer
//   - Connection pool configuration for the underlying database
//
// Most users should import the root package github.com/jdziat/simple-form-actions
// which provides NewGormIdentityStore() to create store instances.
package storage
