// Package platform provides browser windows for the browser and hash
// history adapters.
//
// Sim is an in-process window for tests and tools. Remote mirrors a real
// browser tab connected over a WebSocket running the navhist thin client.
package platform
