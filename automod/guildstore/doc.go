// Persistent per-guild settings, stored as one document per guild id.
//
// Includes an interface and implementations using a SQL database (via gorm), redis, and in-process memory. The store is the system of record for automod configuration; the classification path reads it through a TTL cache.
package guildstore
