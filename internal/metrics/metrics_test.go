package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func withTestRegistry(t *testing.T) *prometheus.Registry {
	t.Helper()
	origReg := prometheus.DefaultRegisterer
	origGather := prometheus.DefaultGatherer
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = origReg
		prometheus.DefaultGatherer = origGather
	})
	return reg
}

func TestNoopMetrics(t *testing.T) {
	var m Metrics = Noop{}
	m.IncUploads("accepted")
	m.ObserveUploadBytes(1024)
	m.IncJobsCompleted("translated")
	m.ObserveStageDuration("ocr", 0.2)
	m.SetQueueDepth(3)
	m.IncCleanups("ok")
}

func TestPromMetrics(t *testing.T) {
	reg := withTestRegistry(t)
	m := NewProm("camtranslate")
	m.IncUploads("accepted")
	m.ObserveUploadBytes(20000)
	m.IncJobsCompleted("translated")
	m.ObserveStageDuration("ocr", 0.25)
	m.SetQueueDepth(2)
	m.IncCleanups("ok")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if !hasMetric(families, "camtranslate_uploads_total", map[string]string{"status": "accepted"}) {
		t.Fatalf("expected uploads metric")
	}
	if !hasMetric(families, "camtranslate_upload_bytes", nil) {
		t.Fatalf("expected upload_bytes metric")
	}
	if !hasMetric(families, "camtranslate_jobs_completed_total", map[string]string{"outcome": "translated"}) {
		t.Fatalf("expected jobs_completed metric")
	}
	if !hasMetric(families, "camtranslate_stage_duration_seconds", map[string]string{"stage": "ocr"}) {
		t.Fatalf("expected stage_duration metric")
	}
	if !hasMetric(families, "camtranslate_queue_depth", nil) {
		t.Fatalf("expected queue_depth metric")
	}
	if !hasMetric(families, "camtranslate_cleanups_total", map[string]string{"status": "ok"}) {
		t.Fatalf("expected cleanups metric")
	}
}

func TestHandler(t *testing.T) {
	withTestRegistry(t)
	m := NewProm("camtranslate")
	m.IncUploads("accepted")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "camtranslate_uploads_total") {
		t.Fatalf("expected uploads metric in output")
	}
}

func hasMetric(families []*dto.MetricFamily, name string, labels map[string]string) bool {
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if matchLabels(metric.GetLabel(), labels) {
				return true
			}
		}
	}
	return false
}

func matchLabels(pairs []*dto.LabelPair, labels map[string]string) bool {
	if len(labels) == 0 {
		return true
	}
	found := 0
	for _, pair := range pairs {
		if val, ok := labels[pair.GetName()]; ok && pair.GetValue() == val {
			found++
		}
	}
	return found == len(labels)
}
