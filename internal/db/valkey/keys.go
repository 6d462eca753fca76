package valkey

import "github.com/kailas-cloud/minicompass/internal/db"

// keyspace lays out the keys of one store:
//
//	<prefix>{<db>}:collections           SET    collection names
//	<prefix>{<db>}:<coll>:ids            ZSET   document ids scored by insertion sequence
//	<prefix>{<db>}:<coll>:seq            STRING insertion counter
//	<prefix>{<db>}:<coll>:doc:<id>       STRING JSON document
//
// The database name is the cluster hash tag, so every key a script or MGET
// touches hashes to one slot.
type keyspace struct {
	prefix string
}

func (k keyspace) collections(database string) string {
	return k.tag(database) + ":collections"
}

func (k keyspace) base(ns db.Namespace) string {
	return k.tag(ns.Database) + ":" + ns.Collection
}

func (k keyspace) tag(database string) string {
	return k.prefix + "{" + database + "}"
}

func (k keyspace) ids(ns db.Namespace) string { return k.base(ns) + ":ids" }

func (k keyspace) seq(ns db.Namespace) string { return k.base(ns) + ":seq" }

func (k keyspace) doc(ns db.Namespace, id string) string { return k.base(ns) + ":doc:" + id }

func (k keyspace) docs(ns db.Namespace, ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = k.doc(ns, id)
	}
	return out
}
