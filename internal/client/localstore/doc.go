// Package localstore provides the client-side persistent cache for entity
// records.
//
// # Overview
//
// One SQLite database (see Open) holds every entity store in a single
// records table keyed by (store, id). Each record is persisted as its JSON
// document plus the bookkeeping columns created_at, updated_at, deleted_at
// and expired_at. A Schema declares the store name and its named secondary
// indexes; each index becomes an SQLite expression index over
// json_extract(data, '$.field') so GetByIndex lookups do not scan.
//
// # Soft delete
//
// SoftDelete never removes a row: it stamps deletedAt and expiredAt and goes
// through Upsert. Default reads (GetAll, GetByIndex) exclude rows whose
// deletedAt or expiredAt is at or before the store clock. Count reports
// physical rows. Purge removes logically excluded rows; Clear removes all.
//
// # Errors
//
// When the database cannot be opened, or the driver fails, operations return
// an error wrapping common.ErrStorageUnavailable. Callers treat it as an
// empty store.
//
// # Concurrency
//
// A Store is safe for concurrent use. Upsert is last-write-wins with
// updatedAt as the tiebreak.
//
// Typical usage
//
//	db := localstore.Open(ctx, "cache.db")
//	cities, _ := db.Store(ctx, localstore.Schema{
//	    Name:    "cities",
//	    Indexes: []localstore.IndexDef{{Name: "by_country_id", Field: "countryId"}},
//	})
//	_, _ = cities.Upsert(ctx, models.Record{"name": "Riga", "countryId": "lv"})
//	page, _ := cities.GetAll(ctx, models.Query{Page: 1, PageSize: 10})
package localstore
