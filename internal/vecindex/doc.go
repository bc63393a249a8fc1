// Package vecindex provides the vector index backend capability: upsert,
// delete, and cosine-similarity query over chunk vectors. The bundled
// backend is in-memory; durable state lives in the storage package and is
// replayed into the index on load.
package vecindex
