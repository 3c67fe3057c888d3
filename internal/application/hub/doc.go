// Package hub implements the real-time broadcast hub: channel membership,
// the fan-out dispatcher and its delivery worker pool.
//
// Delivery is fire-and-forget and at-most-once. Broadcast calls never block
// the caller beyond handing the event to the bounded delivery queue; a full
// queue drops the event. An optional event-bus bridge replays broadcasts
// across service instances.
package hub
