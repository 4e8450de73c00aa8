// Package airtreat models the air-treatment appliance family (purifiers,
// humidifiers, heaters).
//
// These appliances report state as a productState object of short coded
// keys and publish environmental sensor readings on a separate message
// type. Unlike the vacuum family there is no command state machine here;
// product state writes go out as plain key/value requests and the
// appliance echoes the result in its next STATE-CHANGE.
package airtreat
