// Package scan owns single-revolution range-scanner data.
//
// Responsibilities: the Point and Snapshot types, geometric window queries
// over a snapshot (angle, distance, combined, nearest, farthest) and the
// Stream that turns raw device revolutions into usable snapshots.
//
// Angles are degrees in [0, 360); distances are integer millimetres.
// A window whose minimum angle is greater than its maximum wraps through
// 0°, so (350, 10) covers 350–360 and 0–10. All window bounds are
// exclusive.
package scan
