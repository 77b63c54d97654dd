// Package alerts evaluates threshold rules over store statistics after every
// eviction sweep and delivers fire/resolve notifications to Slack, Teams,
// PagerDuty or plain HTTP webhooks.
package alerts
