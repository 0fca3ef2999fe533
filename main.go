package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	// Import all Kubernetes client auth plugins (e.g. Azure, GCP, OIDC, etc.)
	// to ensure that the run can make use of them.
	_ "k8s.io/client-go/plugin/pkg/client/auth"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	prettylog "github.com/krateoplatformops/plumbing/slogs/pretty"
	"github.com/krateoplatformops/provider-runtime/pkg/logging"
	"go.uber.org/multierr"
	"k8s.io/client-go/kubernetes"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/yaml"

	"kserve-lifecycle/api/v1beta1"
	"kserve-lifecycle/internal/helpers"
	"kserve-lifecycle/internal/helpers/config"
	"kserve-lifecycle/internal/helpers/inference"
	clientHelper "kserve-lifecycle/internal/helpers/kube/client"
	"kserve-lifecycle/internal/helpers/storage"
	"kserve-lifecycle/internal/helpers/verify"
	"kserve-lifecycle/internal/lifecycle"
	"kserve-lifecycle/internal/scenario"
)

const (
	exitSuccess = iota
	exitUnknown
	exitConfig
	exitSubmit
	exitReadiness
	exitInference
	exitAssertion
	exitTeardown
)

func main() {
	os.Exit(run())
}

func run() int {
	setupLog := ctrl.Log.WithName("setup")

	lh := prettylog.New(&slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: false,
	},
		prettylog.WithDestinationWriter(os.Stderr),
		prettylog.WithColor(),
		prettylog.WithOutputEmptyAttrs(),
	)

	logrlog := logr.FromSlogHandler(slog.New(lh).Handler())
	log := logging.NewLogrLogger(logrlog)

	// Set the logger for controller-runtime. This only have to log in INFO level as all debug logs are handled by our logger above.
	ctrl.SetLogger(logr.FromSlogHandler(slog.New(prettylog.New(&slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: false,
	},
		prettylog.WithDestinationWriter(os.Stderr),
		prettylog.WithColor(),
		prettylog.WithOutputEmptyAttrs(),
	)).Handler()))

	configuration, err := config.ParseConfig()
	if err != nil {
		setupLog.Error(err, "unable to parse configuration")
		return exitConfig
	}
	policy, err := lifecycle.ParseTeardownPolicy(configuration.TeardownPolicy)
	if err != nil {
		setupLog.Error(err, "unable to parse TEARDOWN_POLICY")
		return exitConfig
	}
	log.Info(configuration.String())

	ctx := ctrl.SetupSignalHandler()

	rc, err := ctrl.GetConfig()
	if err != nil {
		setupLog.Error(err, "unable to load kubeconfig")
		return exitConfig
	}
	dynClient, err := clientHelper.New(rc)
	if err != nil {
		setupLog.Error(err, "unable to create dynamic client")
		return exitConfig
	}
	clientset, err := kubernetes.NewForConfig(rc)
	if err != nil {
		setupLog.Error(err, "unable to create clientset")
		return exitConfig
	}

	runId := uuid.New().String()
	isvc, err := loadDescriptor(configuration, runId)
	if err != nil {
		setupLog.Error(err, "unable to load descriptor", "path", configuration.DescriptorPath)
		return exitConfig
	}

	payload, err := storage.NewLoader(clientset).LoadRef(ctx, configuration.InputPath)
	if err != nil {
		setupLog.Error(err, "unable to load input payload", "input", configuration.InputPath)
		return exitConfig
	}

	driver := lifecycle.New(dynClient, clientset,
		inference.NewClient(&http.Client{Timeout: configuration.RequestTimeout}),
		inference.NewIngressResolver(clientset, configuration.IngressNamespace, configuration.IngressService, configuration.IngressHostPort),
		lifecycle.Options{
			Logger:               log,
			RunId:                runId,
			PollInterval:         configuration.PollingInterval,
			DeletionTimeout:      configuration.DeletionTimeout,
			TeardownPolicy:       policy,
			Protocol:             inference.Protocol(configuration.Protocol),
			KnativeServiceSuffix: configuration.KnativeServiceSuffix,
		})

	rep, runErr := driver.Run(ctx, isvc, lifecycle.Scenario{
		ReadyTimeout: configuration.ReadyTimeout,
		Payload:      payload,
		SkipExplain:  isvc.Spec.Explainer == nil || inference.Protocol(configuration.Protocol) == inference.ProtocolV2,
		Expect:       expectationsFor(configuration),
	})

	if configuration.ReportPath != "" {
		if err := rep.WriteFile(configuration.ReportPath); err != nil {
			log.Warn(fmt.Sprintf("unable to write report to %s: %v", configuration.ReportPath, err))
		}
	}

	if runErr != nil {
		log.Warn(fmt.Sprintf("run %s of InferenceService %s failed: %v", runId, isvc.Name, runErr))
		if rep.Diagnostics != "" {
			fmt.Fprint(os.Stderr, rep.Diagnostics)
		}
		return exitCode(runErr)
	}

	log.Info(fmt.Sprintf("run %s of InferenceService %s succeeded", runId, isvc.Name))
	return exitSuccess
}

// loadDescriptor reads a YAML or JSON descriptor, or builds the AIX explainer
// when no path is configured. Name and namespace fall back to the configuration.
// With UniqueName the run id is appended to the name before the built-in
// scenario is built, since its predictor serves the model under that name.
func loadDescriptor(cfg config.Configuration, runId string) (*v1beta1.InferenceService, error) {
	if cfg.DescriptorPath == "" {
		name := cfg.ServiceName
		if cfg.UniqueName {
			name = helpers.ComputeServiceName(name, runId)
		}
		return scenario.AIXExplainer(name, cfg.Namespace), nil
	}

	b, err := os.ReadFile(cfg.DescriptorPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read descriptor: %w", err)
	}
	isvc := &v1beta1.InferenceService{}
	if err := yaml.Unmarshal(b, isvc); err != nil {
		return nil, fmt.Errorf("unable to decode descriptor: %w", err)
	}
	if isvc.Name == "" {
		isvc.Name = cfg.ServiceName
	}
	if isvc.Namespace == "" {
		isvc.Namespace = cfg.Namespace
	}
	if cfg.UniqueName {
		isvc.Name = helpers.ComputeServiceName(isvc.Name, runId)
	}
	return isvc, nil
}

// expectationsFor applies the AIX assertions only to the built-in scenario;
// custom descriptors are checked for a non-empty answer.
func expectationsFor(cfg config.Configuration) verify.Expectations {
	if cfg.DescriptorPath == "" {
		return scenario.AIXExpectations()
	}
	return verify.Expectations{}
}

// exitCode classifies the first error of the run; a teardown failure only
// decides the code when nothing failed before it.
func exitCode(err error) int {
	errs := multierr.Errors(err)
	if len(errs) == 0 {
		return exitSuccess
	}
	first := errs[0]

	var (
		subErr      *lifecycle.SubmissionError
		timeoutErr  *lifecycle.ReadinessTimeoutError
		infErr      *lifecycle.InferenceError
		failure     *verify.AssertionFailure
		teardownErr *lifecycle.TeardownError
	)
	switch {
	case errors.As(first, &subErr):
		return exitSubmit
	case errors.As(first, &timeoutErr):
		return exitReadiness
	case errors.As(first, &infErr):
		return exitInference
	case errors.As(first, &failure):
		return exitAssertion
	case errors.As(first, &teardownErr):
		return exitTeardown
	}
	return exitUnknown
}
