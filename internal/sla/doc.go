// Package sla holds the pure SLA arithmetic: due-date calculation at ticket
// creation, the compliance status evaluator and period compliance reports.
// Nothing here touches storage or reads the wall clock.
package sla
