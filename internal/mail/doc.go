// Package mail sends built pages as test emails. Each configured file from
// the dist directory becomes one message to the fixed recipient list.
//
// Transports implement Sender: SMTP (github.com/wneessen/go-mail), Postmark
// (github.com/mrz1836/postmark), and an outbox that writes messages to disk
// for local inspection.
package mail
