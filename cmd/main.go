/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"flag"
	"os"

	wsnsv1 "github.com/dana-team/wsns/api/v1"
	"github.com/dana-team/wsns/internal/config"
	"github.com/dana-team/wsns/internal/metrics"
	"github.com/dana-team/wsns/internal/namespacedb"
	"github.com/dana-team/wsns/internal/setup"
	projectv1 "github.com/openshift/api/project/v1"
	routev1 "github.com/openshift/api/route/v1"
	"github.com/spf13/pflag"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/client-go/discovery"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"
	// +kubebuilder:scaffold:imports
)

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(projectv1.Install(scheme))
	utilruntime.Must(routev1.Install(scheme))
	utilruntime.Must(wsnsv1.AddToScheme(scheme))
	// +kubebuilder:scaffold:scheme
}

func main() {
	opts := zap.Options{
		Development: true,
	}
	opts.BindFlags(flag.CommandLine)
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	config.BindFlags(pflag.CommandLine)
	pflag.Parse()

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))

	cfg, err := config.Load(pflag.CommandLine)
	if err != nil {
		setupLog.Error(err, "invalid configuration")
		os.Exit(1)
	}

	restConfig := ctrl.GetConfigOrDie()
	mgr, err := ctrl.NewManager(restConfig, ctrl.Options{
		Scheme:                 scheme,
		LeaderElection:         cfg.EnableLeaderElection,
		LeaderElectionID:       "b7e2f41c.wsns.dana.io",
		Metrics:                metricsserver.Options{BindAddress: cfg.MetricsAddr},
		HealthProbeBindAddress: cfg.ProbeAddr,
	})
	if err != nil {
		setupLog.Error(err, "unable to start manager")
		os.Exit(1)
	}

	metrics.InitializeMetrics()

	ctx := ctrl.SetupSignalHandler()

	ndb, err := namespacedb.Init(ctx, mgr.GetAPIReader(), setupLog.WithName("InitDB Logger"))
	if err != nil {
		setupLog.Error(err, "unable to successfully initialize namespacedb")
		os.Exit(1)
	}

	provisioner, err := setup.Provisioner(cfg, mgr.GetClient(), discovery.NewDiscoveryClientForConfigOrDie(restConfig), ndb)
	if err != nil {
		setupLog.Error(err, "unable to set up the namespace provisioner")
		os.Exit(1)
	}
	setupLog.Info("namespace provisioner ready", "flavor", provisioner.Flavor.Name(),
		"template", provisioner.Resolver.Template(), "workspaces", ndb.WorkspaceCount())

	setupLog.Info("setting up reconcilers")
	if err := setup.Controllers(mgr, provisioner); err != nil {
		setupLog.Error(err, "unable to successfully set up controllers")
		os.Exit(1)
	}
	// +kubebuilder:scaffold:builder

	if !cfg.NoWebhooks {
		setupLog.Info("setting up webhooks")
		setup.Webhooks(mgr, provisioner)
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up health check")
		os.Exit(1)
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up ready check")
		os.Exit(1)
	}

	setupLog.Info("starting manager")
	if err := mgr.Start(ctx); err != nil {
		setupLog.Error(err, "problem running manager")
		os.Exit(1)
	}
}
