package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/krateoplatformops/plumbing/env"

	"kserve-lifecycle/api/v1beta1"
)

type Configuration struct {
	Namespace            string
	ServiceName          string
	DescriptorPath       string
	InputPath            string
	ReadyTimeout         time.Duration
	PollingInterval      time.Duration
	DeletionTimeout      time.Duration
	RequestTimeout       time.Duration
	TeardownPolicy       string
	Protocol             string
	IngressHostPort      string
	IngressNamespace     string
	IngressService       string
	KnativeServiceSuffix string
	UniqueName           bool
	ReportPath           string
}

func (r *Configuration) String() string {
	return fmt.Sprintf("NAMESPACE: %s - SERVICE_NAME: %s - READY_TIMEOUT: %s - POLLING_INTERVAL: %s - TEARDOWN_POLICY: %s - PROTOCOL: %s",
		r.Namespace, r.ServiceName, r.ReadyTimeout, r.PollingInterval, r.TeardownPolicy, r.Protocol)
}

// ParseConfig parses the process flags, falling back to environment variables.
func ParseConfig() (Configuration, error) {
	return Parse(flag.CommandLine, os.Args[1:])
}

func Parse(fs *flag.FlagSet, args []string) (Configuration, error) {
	namespace := fs.String("namespace",
		env.String("NAMESPACE", "kserve-ci-test"), "Namespace the InferenceService is deployed in")
	serviceName := fs.String("service-name",
		env.String("SERVICE_NAME", "aix-explainer"), "Name of the InferenceService (ignored when a descriptor sets one)")
	descriptorPath := fs.String("descriptor",
		env.String("DESCRIPTOR_PATH", ""), "Path to an InferenceService descriptor (YAML or JSON); empty uses the built-in AIX explainer")
	inputPath := fs.String("input",
		env.String("INPUT_PATH", "./testdata/mnist_input.json"), "Request payload source: a file path or configmap://<namespace>/<name>/<key>")
	readyTimeout := fs.String("ready-timeout",
		env.String("READY_TIMEOUT", "720s"), "Deadline for the InferenceService to become ready")
	pollingInterval := fs.String("polling-interval",
		env.String("POLLING_INTERVAL", "10s"), "Interval between readiness checks")
	deletionTimeout := fs.String("deletion-timeout",
		env.String("DELETION_TIMEOUT", "0s"), "Wait this long for the deletion to be confirmed (0 disables the check)")
	requestTimeout := fs.String("request-timeout",
		env.String("REQUEST_TIMEOUT", "60s"), "Timeout of a single predict or explain call")
	teardownPolicy := fs.String("teardown-policy",
		env.String("TEARDOWN_POLICY", "DeleteOnCompletion"), "One of None, DeleteOnSuccess, DeleteOnCompletion")
	protocol := fs.String("protocol",
		env.String("PROTOCOL", "v1"), "Inference protocol version (v1 or v2)")
	ingressHostPort := fs.String("ingress-host-port",
		env.String("KSERVE_INGRESS_HOST_PORT", ""), "Ingress address override, skips the gateway lookup")
	ingressNamespace := fs.String("ingress-namespace",
		env.String("INGRESS_NAMESPACE", "istio-system"), "Namespace of the ingress gateway Service")
	ingressService := fs.String("ingress-service",
		env.String("INGRESS_SERVICE", "istio-ingressgateway"), "Name of the ingress gateway Service")
	knativeSuffix := fs.String("knative-service-suffix",
		env.String("KNATIVE_SERVICE_SUFFIX", v1beta1.DefaultKnativeServiceSuffix), "Suffix of the predictor knative Service, used for diagnostics")
	uniqueName := fs.String("unique-name",
		env.String("UNIQUE_NAME", "false"), "Append a run id to the service name")
	reportPath := fs.String("report",
		env.String("REPORT_PATH", ""), "Write the JSON run report to this path")

	if err := fs.Parse(args); err != nil {
		return Configuration{}, err
	}

	cfg := Configuration{
		Namespace:            *namespace,
		ServiceName:          *serviceName,
		DescriptorPath:       *descriptorPath,
		InputPath:            *inputPath,
		TeardownPolicy:       *teardownPolicy,
		Protocol:             *protocol,
		IngressHostPort:      *ingressHostPort,
		IngressNamespace:     *ingressNamespace,
		IngressService:       *ingressService,
		KnativeServiceSuffix: *knativeSuffix,
		ReportPath:           *reportPath,
	}

	var err error
	if cfg.ReadyTimeout, err = parseDuration("READY_TIMEOUT", *readyTimeout); err != nil {
		return Configuration{}, err
	}
	if cfg.PollingInterval, err = parseDuration("POLLING_INTERVAL", *pollingInterval); err != nil {
		return Configuration{}, err
	}
	if cfg.PollingInterval <= 0 {
		return Configuration{}, fmt.Errorf("POLLING_INTERVAL must be positive, got %s", cfg.PollingInterval)
	}
	if cfg.DeletionTimeout, err = parseDuration("DELETION_TIMEOUT", *deletionTimeout); err != nil {
		return Configuration{}, err
	}
	if cfg.RequestTimeout, err = parseDuration("REQUEST_TIMEOUT", *requestTimeout); err != nil {
		return Configuration{}, err
	}
	if cfg.UniqueName, err = strconv.ParseBool(*uniqueName); err != nil {
		return Configuration{}, fmt.Errorf("unable to parse UNIQUE_NAME: %w", err)
	}

	return cfg, nil
}

// parseDuration accepts Go durations and, like the controller settings, bare seconds.
func parseDuration(name, value string) (time.Duration, error) {
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("unable to parse %s: %w", name, err)
	}
	return d, nil
}
