package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	sessionsStarted         atomic.Int64
	sessionsFinalized       atomic.Int64
	sessionsCancelled       atomic.Int64
	responsesRecorded       atomic.Int64
	alertsRaised            atomic.Int64
	alertsUpdated           atomic.Int64
	notificationsDispatched atomic.Int64
)

func IncSessionStarted()         { sessionsStarted.Add(1) }
func IncSessionFinalized()       { sessionsFinalized.Add(1) }
func IncSessionCancelled()       { sessionsCancelled.Add(1) }
func IncResponseRecorded()       { responsesRecorded.Add(1) }
func IncAlertRaised()            { alertsRaised.Add(1) }
func IncAlertUpdated()           { alertsUpdated.Add(1) }
func IncNotificationDispatched() { notificationsDispatched.Add(1) }

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP sentira_assessment_sessions_started_total Number of assessment sessions started since process start.\n")
	fmt.Fprintf(w, "# TYPE sentira_assessment_sessions_started_total counter\n")
	fmt.Fprintf(w, "sentira_assessment_sessions_started_total %d\n", sessionsStarted.Load())

	fmt.Fprintf(w, "# HELP sentira_assessment_sessions_finalized_total Number of assessment sessions finalized since process start.\n")
	fmt.Fprintf(w, "# TYPE sentira_assessment_sessions_finalized_total counter\n")
	fmt.Fprintf(w, "sentira_assessment_sessions_finalized_total %d\n", sessionsFinalized.Load())

	fmt.Fprintf(w, "# HELP sentira_assessment_sessions_cancelled_total Number of assessment sessions cancelled since process start.\n")
	fmt.Fprintf(w, "# TYPE sentira_assessment_sessions_cancelled_total counter\n")
	fmt.Fprintf(w, "sentira_assessment_sessions_cancelled_total %d\n", sessionsCancelled.Load())

	fmt.Fprintf(w, "# HELP sentira_assessment_responses_recorded_total Number of responses accepted since process start.\n")
	fmt.Fprintf(w, "# TYPE sentira_assessment_responses_recorded_total counter\n")
	fmt.Fprintf(w, "sentira_assessment_responses_recorded_total %d\n", responsesRecorded.Load())

	fmt.Fprintf(w, "# HELP sentira_assessment_alerts_raised_total Number of new risk alerts created since process start.\n")
	fmt.Fprintf(w, "# TYPE sentira_assessment_alerts_raised_total counter\n")
	fmt.Fprintf(w, "sentira_assessment_alerts_raised_total %d\n", alertsRaised.Load())

	fmt.Fprintf(w, "# HELP sentira_assessment_alerts_updated_total Number of deduplicated alert updates since process start.\n")
	fmt.Fprintf(w, "# TYPE sentira_assessment_alerts_updated_total counter\n")
	fmt.Fprintf(w, "sentira_assessment_alerts_updated_total %d\n", alertsUpdated.Load())

	fmt.Fprintf(w, "# HELP sentira_notifier_notifications_dispatched_total Number of notifications written since process start.\n")
	fmt.Fprintf(w, "# TYPE sentira_notifier_notifications_dispatched_total counter\n")
	fmt.Fprintf(w, "sentira_notifier_notifications_dispatched_total %d\n", notificationsDispatched.Load())
}
