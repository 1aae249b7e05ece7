// Package kvtest provides a reusable contract suite for kvstash.Port
// implementations.
//
// Backend packages can run it from their own tests without importing root
// test helpers:
//
//	func TestRedisPortContract(t *testing.T) {
//		client := newTestRedisClient(t)
//		port := kvstash.NewRedisPort(context.Background(), client, kvstash.WithPrefix("test"))
//		kvtest.RunPortContract(t, port, kvtest.Options{CaseName: t.Name()})
//	}
package kvtest
