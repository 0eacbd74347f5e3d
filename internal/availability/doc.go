// Package availability decides whether a room can be booked for a given
// interval.  It holds no state and performs no I/O: callers load the
// room's existing bookings and pass them in, which lets the same rules run
// in request validation, in the submission transaction and in the schedule
// views.
//
// Intervals are half-open.  Two bookings [s1,e1) and [s2,e2) conflict when
// s1 < e2 and e1 > s2, so a booking ending at 11:00 never collides with one
// starting at 11:00.
package availability
