package valkey

import "github.com/redis/rueidis"

// insertScript writes a new document and indexes it.
// KEYS: doc, ids, seq, collections. ARGV: data, id, collection.
// Returns 0 when the document key already exists.
var insertScript = rueidis.NewLuaScript(`
if not redis.call('SET', KEYS[1], ARGV[1], 'NX') then
	return 0
end
local seq = redis.call('INCR', KEYS[3])
redis.call('ZADD', KEYS[2], seq, ARGV[2])
redis.call('SADD', KEYS[4], ARGV[3])
return 1
`)

// deleteScript removes a document and its index entry.
// KEYS: doc, ids. ARGV: id. Returns the number of documents removed.
var deleteScript = rueidis.NewLuaScript(`
if redis.call('DEL', KEYS[1]) == 0 then
	return 0
end
redis.call('ZREM', KEYS[2], ARGV[1])
return 1
`)

// casScript swaps a document body only if it still holds the expected value.
// KEYS: doc. ARGV: expected, next. Returns 1 on swap, 0 on mismatch.
var casScript = rueidis.NewLuaScript(`
if redis.call('GET', KEYS[1]) ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2])
return 1
`)
