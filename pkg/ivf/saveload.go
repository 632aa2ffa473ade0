package ivf

import (
	"bytes"
	"encoding/binary"
	"path/filepath"

	"github.com/go-svs/svs/internal/quant"
	"github.com/go-svs/svs/pkg/dataset"
	"github.com/go-svs/svs/pkg/distance"
	"github.com/go-svs/svs/pkg/saveload"
	"github.com/go-svs/svs/pkg/svserr"
	"github.com/go-svs/svs/pkg/translate"
)

const membersSchema = "ivf_cluster_members"

var membersSaveVersion = saveload.Version{Major: 0, Minor: 0, Patch: 1}

// SaveIndex persists idx as sibling directories under dir — ivf_clustering
// (centroids + per-cluster member lists), ivf_translator, and ivf_data —
// matching §6's "one clustering directory ... plus a separate data
// directory" layout for an assembled IVF index.
func (idx *Index) SaveIndex(dir string) error {
	centroidData, err := dataset.FromRows(idx.Centroids)
	if err != nil {
		return err
	}
	clusterCtx, err := saveload.NewSaveContext(filepath.Join(dir, "ivf_clustering"))
	if err != nil {
		return err
	}
	centroidTable, err := centroidData.Save(clusterCtx)
	if err != nil {
		return err
	}

	// The actual cluster count can fall short of Params.NumCentroids in
	// degenerate inputs (quant.KMeansPlusPlus may return fewer centroids
	// than requested), so the persisted count always comes from
	// len(idx.Centroids) rather than the configured target.
	numClusters := len(idx.Centroids)
	assignments := make([][]uint32, numClusters)
	for c := range assignments {
		assignments[c] = idx.store.members(c)
	}
	var buf bytes.Buffer
	for _, ids := range assignments {
		if err := binary.Write(&buf, binary.LittleEndian, uint32(len(ids))); err != nil {
			return svserr.Serialization("encoding cluster member count: %v", err)
		}
		if err := binary.Write(&buf, binary.LittleEndian, ids); err != nil {
			return svserr.Serialization("encoding cluster members: %v", err)
		}
	}
	memberBlob, err := saveload.SaveBlob(clusterCtx, "ivf_members", "uint32", 4, numClusters, buf.Bytes(), true)
	if err != nil {
		return err
	}

	clusteringTable := saveload.Table{
		"num_centroids":        int64(idx.Params.NumCentroids),
		"hierarchical":         idx.Params.Hierarchical,
		"l1_centroids":         int64(idx.Params.L1Centroids),
		"n_probes":             int64(idx.Params.NProbes),
		"k_reorder":            int64(idx.Params.KReorder),
		"storage":              int64(idx.Params.Storage),
		"quantizer":            int64(idx.Params.Quantizer),
		"quant_bits":           int64(idx.Params.QuantBits),
		"lvq_residual":         idx.Params.LVQResidual,
		"lvq_residual_bits":    int64(idx.Params.LVQResidualBits),
		"lean_vec_reduced_dim": int64(idx.Params.LeanVecReducedDim),
		"metric":               int64(idx.Metric.Kind),
		"centroids":            centroidTable,
		"members":              memberBlob,
	}
	if err := saveload.SaveRoot(clusterCtx, saveload.WithMetadata(clusteringTable, membersSchema, membersSaveVersion)); err != nil {
		return err
	}

	translatorCtx, err := saveload.NewSaveContext(filepath.Join(dir, "ivf_translator"))
	if err != nil {
		return err
	}
	if err := saveload.SaveRoot(translatorCtx, idx.Translator.Save()); err != nil {
		return err
	}

	dataCtx, err := saveload.NewSaveContext(filepath.Join(dir, "ivf_data"))
	if err != nil {
		return err
	}
	dense, ok := idx.data.(*dataset.Dense)
	if !ok {
		return svserr.Serialization("ivf index data is not a *dataset.Dense; cannot persist")
	}
	dataTable, err := dense.Save(dataCtx)
	if err != nil {
		return err
	}
	return saveload.SaveRoot(dataCtx, dataTable)
}

// LoadIndex reverses SaveIndex.
func LoadIndex(dir string) (*Index, error) {
	clusterCtx := saveload.NewLoadContext(filepath.Join(dir, "ivf_clustering"))
	loadedClustering, err := saveload.LoadRoot(clusterCtx)
	if err != nil {
		return nil, err
	}
	if err := saveload.CheckCompatible(loadedClustering, membersSchema, membersSaveVersion); err != nil {
		return nil, err
	}

	params := Params{
		NumCentroids:      asInt(loadedClustering.Object["num_centroids"]),
		Hierarchical:      asBool(loadedClustering.Object["hierarchical"]),
		L1Centroids:       asInt(loadedClustering.Object["l1_centroids"]),
		NProbes:           asInt(loadedClustering.Object["n_probes"]),
		KReorder:          asInt(loadedClustering.Object["k_reorder"]),
		Storage:           StorageStrategy(asInt(loadedClustering.Object["storage"])),
		Quantizer:         Quantizer(asInt(loadedClustering.Object["quantizer"])),
		QuantBits:         asInt(loadedClustering.Object["quant_bits"]),
		LVQResidual:       asBool(loadedClustering.Object["lvq_residual"]),
		LVQResidualBits:   asInt(loadedClustering.Object["lvq_residual_bits"]),
		LeanVecReducedDim: asInt(loadedClustering.Object["lean_vec_reduced_dim"]),
	}
	kind := distance.Kind(asInt(loadedClustering.Object["metric"]))
	metric := distance.For(kind)

	centroidSub, err := asLoadedRoot(loadedClustering.Object["centroids"])
	if err != nil {
		return nil, err
	}
	centroidData, err := dataset.LoadDense(clusterCtx, centroidSub)
	if err != nil {
		return nil, err
	}

	memberBlobTable, err := asBlobTable(loadedClustering.Object["members"])
	if err != nil {
		return nil, err
	}
	raw, err := saveload.LoadBlob(clusterCtx, memberBlobTable)
	if err != nil {
		return nil, err
	}
	numClusters := centroidData.Size()
	assignments := make([][]uint32, numClusters)
	r := bytes.NewReader(raw)
	for c := 0; c < numClusters; c++ {
		var count uint32
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return nil, svserr.Serialization("decoding cluster %d member count: %v", c, err)
		}
		ids := make([]uint32, count)
		if err := binary.Read(r, binary.LittleEndian, ids); err != nil {
			return nil, svserr.Serialization("decoding cluster %d members: %v", c, err)
		}
		assignments[c] = ids
	}

	translatorCtx := saveload.NewLoadContext(filepath.Join(dir, "ivf_translator"))
	loadedTranslator, err := saveload.LoadRoot(translatorCtx)
	if err != nil {
		return nil, err
	}
	translator, err := translate.Load(loadedTranslator)
	if err != nil {
		return nil, err
	}

	dataCtx := saveload.NewLoadContext(filepath.Join(dir, "ivf_data"))
	loadedData, err := saveload.LoadRoot(dataCtx)
	if err != nil {
		return nil, err
	}
	data, err := dataset.LoadDense(dataCtx, loadedData)
	if err != nil {
		return nil, err
	}

	scanData := data
	var reducer *quant.Reducer
	if params.Storage == Compressed {
		// None of the three quantizers persist their own state: scalar and
		// LVQ retrain deterministically from the exact data they were
		// originally trained on, and LeanVec's truncation projection (the
		// only one Open Questions resolves to when no learned matrix is
		// configured) is likewise data-independent, so re-deriving the scan
		// dataset here reproduces the same rows without an extra sidecar.
		scanData, reducer, err = buildQuantizedScanData(data, params)
		if err != nil {
			return nil, err
		}
	}

	var store clusterStore
	if params.Storage == Dense || params.Storage == Compressed {
		store, err = newDenseStore(scanData, assignments)
		if err != nil {
			return nil, err
		}
	} else {
		store = newSparseStore(scanData, assignments)
	}

	return &Index{
		Centroids:  centroidData.Rows(),
		Metric:     metric,
		Params:     params,
		Translator: translator,
		store:      store,
		data:       data,
		reducer:    reducer,
	}, nil
}

func asLoadedRoot(v interface{}) (*saveload.LoadedRoot, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, svserr.Serialization("nested table has unexpected shape %T", v)
	}
	schema, _ := m["__schema__"].(string)
	versionStr, _ := m["__version__"].(string)
	version, err := saveload.ParseVersion(versionStr)
	if err != nil {
		return nil, err
	}
	return &saveload.LoadedRoot{Schema: schema, ObjectVersion: version, Object: saveload.Table(m)}, nil
}

func asBlobTable(v interface{}) (saveload.BlobTable, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return saveload.BlobTable{}, svserr.Serialization("blob table has unexpected shape %T", v)
	}
	return saveload.BlobTable{
		Filename:    asString(m["filename"]),
		ElementSize: asInt(m["element_size"]),
		ElementType: asString(m["element_type"]),
		NumElements: asInt(m["num_elements"]),
		Compression: asString(m["compression"]),
	}, nil
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
