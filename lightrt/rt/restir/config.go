package restir

type Config struct {
	DiMaxM          float32
	GiMaxM          float32
	DiCandidates    int
	DiNeighbors     int
	GiNeighbors     int
	DiRadius        float32
	GiRadius        float32
	DepthThreshold  float32 // relative depth difference
	NormalThreshold float32 // minimum normal dot product
}

func DefaultConfig() Config {
	return Config{
		DiMaxM:          20,
		GiMaxM:          30,
		DiCandidates:    8,
		DiNeighbors:     5,
		GiNeighbors:     4,
		DiRadius:        16,
		GiRadius:        32,
		DepthThreshold:  0.1,
		NormalThreshold: 0.9,
	}
}
