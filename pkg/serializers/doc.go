// Package serializers provides ready-made core.Serializer adapters for
// common business primitives.
//
// This package includes:
//   - Value: string-backed value types built by a parse function
//   - UnixTime: time.Time carried as Unix seconds
//   - StoreID: persistent objects carried as identity strings
//   - Cron: schedule fields carried as cron expressions
//   - JSON: structured fields carried as JSON documents
package serializers
