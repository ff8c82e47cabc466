// Package qrcode renders QR code images as raw PNG bytes or as a
// data-URI string for embedding in HTML.
//
// It wraps github.com/skip2/go-qrcode with input validation and a
// default size, and exposes its failures as package-level errors usable
// with errors.Is. The billing API uses it to hand a checkout link from
// a desktop session to a phone.
package qrcode
