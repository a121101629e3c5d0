package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abelbrown/suss/internal/dataset"
	"github.com/abelbrown/suss/internal/store"
	"github.com/abelbrown/suss/internal/synth"
)

var (
	openID string

	openCmd = &cobra.Command{
		Use:   "open <name>",
		Short: "Curate the latest saved version of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE:  runOpen,
	}

	demoParams = synth.DefaultParams()
	demoName   string

	demoCmd = &cobra.Command{
		Use:   "demo",
		Short: "Generate a synthetic recording and curate it",
		Args:  cobra.NoArgs,
		RunE:  runDemo,
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List saved datasets, newest first",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
)

func init() {
	openCmd.Flags().StringVar(&openID, "id", "", "open a specific saved version instead of the latest")

	f := demoCmd.Flags()
	f.Int64Var(&demoParams.Seed, "seed", demoParams.Seed, "random seed")
	f.IntVar(&demoParams.Clusters, "clusters", demoParams.Clusters, "top-level clusters")
	f.IntVar(&demoParams.SubClusters, "sub-clusters", demoParams.SubClusters, "children per cluster")
	f.IntVar(&demoParams.EventsPerSub, "events", demoParams.EventsPerSub, "events per sub-cluster")
	f.Float64Var(&demoParams.Noise, "noise", demoParams.Noise, "noise relative to spike peak")
	f.StringVar(&demoName, "name", "", "dataset name (default demo-<seed>)")
}

func runOpen(cmd *cobra.Command, args []string) error {
	name := args[0]
	st, err := openDB()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	load := func() (*dataset.Tree, store.Meta, error) { return st.LoadDataset(ctx, name) }
	if openID != "" {
		load = func() (*dataset.Tree, store.Meta, error) { return st.LoadByID(ctx, openID) }
	}
	ds, meta, err := load()
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s: no saved dataset (see 'suss list')", name)
	}
	if err != nil {
		return err
	}
	return runSession(ctx, st, meta.Name, ds)
}

func runDemo(cmd *cobra.Command, args []string) error {
	ds, err := synth.Generate(demoParams)
	if err != nil {
		return err
	}
	name := demoName
	if name == "" {
		name = fmt.Sprintf("demo-%d", demoParams.Seed)
	}

	st, err := openDB()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	if _, err := st.SaveDataset(ctx, name, store.KindLoad, ds); err != nil {
		return fmt.Errorf("save generated dataset: %w", err)
	}
	return runSession(ctx, st, name, ds)
}

func runList(cmd *cobra.Command, args []string) error {
	st, err := openDB()
	if err != nil {
		return err
	}
	defer st.Close()

	metas, err := st.ListDatasets(cmd.Context())
	if err != nil {
		return err
	}
	return printMetas(cmd.OutOrStdout(), metas)
}

// printMetas writes one aligned row per saved dataset.
func printMetas(w io.Writer, metas []store.Meta) error {
	if len(metas) == 0 {
		_, err := fmt.Fprintln(w, "no saved datasets (try 'suss demo')")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tCLUSTERS\tEVENTS\tSAVED\tID")
	for _, m := range metas {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
			m.Name, m.Kind, m.Clusters, m.Events, m.Created.Local().Format("2006-01-02 15:04"), shortID(m.ID))
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
