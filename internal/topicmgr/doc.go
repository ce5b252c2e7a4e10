// Package topicmgr is the catalogue of bus topics used by the relay.
//
// Framework topics belong to the transport and server (ws.*, server.*) and
// carry no module. Module topics belong to a feature module such as relay.
//
//	var ClientReady = topicmgr.DefineFramework(topicmgr.TopicConfig{
//		Name:        "ws.client.ready",
//		Description: "A WebSocket client connected",
//		Pattern:     "ws.client.ready",
//	})
//
//	err := topicmgr.Default().Register(ClientReady)
//
// Registered topics can be listed by module or scope; relay-cli topics list
// prints them.
package topicmgr
