package vamana

import (
	"path/filepath"

	"github.com/go-svs/svs/pkg/dataset"
	"github.com/go-svs/svs/pkg/distance"
	"github.com/go-svs/svs/pkg/graph"
	"github.com/go-svs/svs/pkg/saveload"
	"github.com/go-svs/svs/pkg/threadpool"
	"github.com/go-svs/svs/pkg/translate"
)

// SaveIndex persists idx as four sibling directories under dir —
// vamana_config, vamana_translator, vamana_graph, vamana_data — each its own
// versioned saveload root. §6 names config/graph/data as the three
// Vamana-artifact directories; the id translator gets its own directory
// here rather than being folded into vamana_config so every directory stays
// a single independently-loadable saveload.Table, with no nested-root
// composition needed on the read side.
func (idx *Index) SaveIndex(dir string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	configCtx, err := saveload.NewSaveContext(filepath.Join(dir, "vamana_config"))
	if err != nil {
		return err
	}
	configTable := idx.Params.Save()
	configTable["entry_point"] = int64(idx.EntryPoint)
	configTable["metric"] = int64(idx.Metric.Kind)
	configTable["graph_backend"] = string(idx.GraphBackend)
	if err := saveload.SaveRoot(configCtx, configTable); err != nil {
		return err
	}

	translatorCtx, err := saveload.NewSaveContext(filepath.Join(dir, "vamana_translator"))
	if err != nil {
		return err
	}
	if err := saveload.SaveRoot(translatorCtx, idx.Translator.Save()); err != nil {
		return err
	}

	graphCtx, err := saveload.NewSaveContext(filepath.Join(dir, "vamana_graph"))
	if err != nil {
		return err
	}
	graphTable, err := idx.Graph.SaveWithBackend(graphCtx, idx.GraphBackend)
	if err != nil {
		return err
	}
	if err := saveload.SaveRoot(graphCtx, graphTable); err != nil {
		return err
	}

	dataCtx, err := saveload.NewSaveContext(filepath.Join(dir, "vamana_data"))
	if err != nil {
		return err
	}
	dataTable, err := idx.Data.Save(dataCtx)
	if err != nil {
		return err
	}
	return saveload.SaveRoot(dataCtx, dataTable)
}

// LoadIndex reverses SaveIndex. pool is supplied fresh by the caller rather
// than persisted, matching the teacher's pattern of rebuilding runtime-only
// resources (thread pools, connection handles) after deserialization
// instead of round-tripping them.
func LoadIndex(dir string, pool *threadpool.Pool) (*Index, error) {
	configCtx := saveload.NewLoadContext(filepath.Join(dir, "vamana_config"))
	loadedConfig, err := saveload.LoadRoot(configCtx)
	if err != nil {
		return nil, err
	}
	params, err := LoadBuildParameters(loadedConfig)
	if err != nil {
		return nil, err
	}
	entryPoint := toInt(loadedConfig.Object["entry_point"])
	kind := distance.Kind(toInt(loadedConfig.Object["metric"]))
	graphBackend := graph.Backend(toString(loadedConfig.Object["graph_backend"]))

	translatorCtx := saveload.NewLoadContext(filepath.Join(dir, "vamana_translator"))
	loadedTranslator, err := saveload.LoadRoot(translatorCtx)
	if err != nil {
		return nil, err
	}
	translator, err := translate.Load(loadedTranslator)
	if err != nil {
		return nil, err
	}

	graphCtx := saveload.NewLoadContext(filepath.Join(dir, "vamana_graph"))
	loadedGraph, err := saveload.LoadRoot(graphCtx)
	if err != nil {
		return nil, err
	}
	g, err := graph.Load(graphCtx, loadedGraph)
	if err != nil {
		return nil, err
	}

	dataCtx := saveload.NewLoadContext(filepath.Join(dir, "vamana_data"))
	loadedData, err := saveload.LoadRoot(dataCtx)
	if err != nil {
		return nil, err
	}
	d, err := dataset.LoadDense(dataCtx, loadedData)
	if err != nil {
		return nil, err
	}

	return &Index{
		Graph:        g,
		Data:         d,
		Metric:       distance.For(kind),
		EntryPoint:   entryPoint,
		Translator:   translator,
		Params:       params,
		Pool:         pool,
		GraphBackend: graphBackend,
		deleted:      make(map[int]bool),
	}, nil
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}
