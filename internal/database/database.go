package database

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
)

// keyspaceConfig décrit la connexion à un keyspace ScyllaDB. Chaque keyspace
// a son propre rôle applicatif, avec les droits minimum pour son domaine.
type keyspaceConfig struct {
	Hosts       []string
	Keyspace    string
	Username    string
	Password    string
	SSLEnabled  bool
	CACertPath  string
	Timeout     time.Duration
	NumConns    int
	Consistency gocql.Consistency
}

// scyllaManager garde une session gocql par keyspace, créées paresseusement
type scyllaManager struct {
	sessions map[string]*gocql.Session // keyspace → session
	configs  map[string]keyspaceConfig
	mu       sync.Mutex
}

// --- Clients globaux ---
var (
	scylla *scyllaManager
	Redis  *redis.Client
	MinIO  *minio.Client
)

// ConnectDatabases ouvre toutes les connexions au démarrage.
// Toute base injoignable est fatale : la boutique ne démarre pas à moitié.
func ConnectDatabases() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1. ScyllaDB (multi-keyspaces)
	if err := initScylla(); err != nil {
		log.Fatalf("❌ Échec initialisation ScyllaDB: %v", err)
	}

	// 2. Redis (cache produits + rate limiting)
	connectRedis(ctx)

	// 3. MinIO (preuves de paiement)
	connectMinIO(ctx)

	log.Println("✅ Toutes les bases de données sont connectées")
}

// =============================================
// SCYLLA DB (Multi-Keyspaces avec SSL & Rôles)
// =============================================

func initScylla() error {
	scylla = &scyllaManager{
		sessions: make(map[string]*gocql.Session),
		configs:  loadKeyspaceConfigs(),
	}
	if len(scylla.configs) == 0 {
		return fmt.Errorf("aucun keyspace configuré (SCYLLA_KS_*_KEYSPACE)")
	}

	// Ouvrir toutes les sessions tout de suite : une permission manquante
	// doit se voir au démarrage, pas à la première commande
	for keyspace := range scylla.configs {
		if _, err := scylla.session(keyspace); err != nil {
			return fmt.Errorf("échec initialisation keyspace %s: %v", keyspace, err)
		}
	}

	// Note: les tables sont créées via scripts/scylla_schema.cql, les rôles
	// applicatifs n'ont pas les droits de DDL
	return nil
}

// loadKeyspaceConfigs lit la configuration des trois keyspaces depuis .env
func loadKeyspaceConfigs() map[string]keyspaceConfig {
	configs := make(map[string]keyspaceConfig)

	// Configuration commune
	hosts := strings.Split(os.Getenv("SCYLLA_HOSTS"), ",")
	sslEnabled := strings.ToLower(os.Getenv("SCYLLA_SSL_ENABLED")) == "true"
	caPath := os.Getenv("SCYLLA_SSL_CA_PATH")

	// Un rôle ScyllaDB distinct par keyspace : produits, utilisateurs, commandes
	for _, prefix := range []string{"PRODUCTS", "USERS", "ORDERS"} {
		ks := os.Getenv("SCYLLA_KS_" + prefix + "_KEYSPACE")
		if ks == "" {
			continue
		}
		configs[ks] = keyspaceConfig{
			Hosts:       hosts,
			Keyspace:    ks,
			Username:    os.Getenv("SCYLLA_KS_" + prefix + "_ROLE"),
			Password:    os.Getenv("SCYLLA_KS_" + prefix + "_PASSWORD"),
			SSLEnabled:  sslEnabled,
			CACertPath:  caPath,
			Timeout:     5 * time.Second,
			NumConns:    20,
			Consistency: gocql.Quorum,
		}
	}

	return configs
}

func newCluster(config keyspaceConfig) (*gocql.ClusterConfig, error) {
	cluster := gocql.NewCluster(config.Hosts...)
	cluster.Keyspace = config.Keyspace
	cluster.Consistency = config.Consistency
	cluster.Timeout = config.Timeout
	cluster.NumConns = config.NumConns
	cluster.ReconnectInterval = 1 * time.Second
	cluster.Authenticator = gocql.PasswordAuthenticator{
		Username: config.Username,
		Password: config.Password,
	}

	if config.SSLEnabled && config.CACertPath != "" {
		caCert, err := os.ReadFile(config.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("impossible de lire le certificat CA: %v", err)
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("impossible de parser le certificat CA")
		}

		cluster.SslOpts = &gocql.SslOptions{
			Config: &tls.Config{RootCAs: caCertPool},
		}
	}

	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())

	return cluster, nil
}

// session retourne la session du keyspace, en la (re)créant si besoin
func (sm *scyllaManager) session(keyspace string) (*gocql.Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	config, exists := sm.configs[keyspace]
	if !exists {
		return nil, fmt.Errorf("keyspace '%s' non configuré", keyspace)
	}

	if s, exists := sm.sessions[keyspace]; exists {
		if err := s.Query("SELECT now() FROM system.local").Exec(); err == nil {
			return s, nil
		}
		// Session morte : on la remplace
		s.Close()
	}

	cluster, err := newCluster(config)
	if err != nil {
		return nil, fmt.Errorf("erreur configuration cluster pour %s: %v", keyspace, err)
	}

	s, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("erreur création session pour %s: %v", keyspace, err)
	}

	sm.sessions[keyspace] = s
	log.Printf("✅ Session ScyllaDB ouverte pour keyspace '%s' (rôle: %s)",
		keyspace, config.Username)

	return s, nil
}

// CloseScylla ferme toutes les sessions ScyllaDB
func CloseScylla() {
	if scylla == nil {
		return
	}
	scylla.mu.Lock()
	defer scylla.mu.Unlock()

	for keyspace, s := range scylla.sessions {
		s.Close()
		log.Printf("🔌 Session ScyllaDB fermée pour keyspace '%s'", keyspace)
	}
}

// GetUsersSession retourne la session du keyspace users (comptes, audit)
func GetUsersSession() (*gocql.Session, error) {
	return sessionFor("SCYLLA_KS_USERS_KEYSPACE")
}

// GetProductsSession retourne la session du keyspace products (catalogue, stock)
func GetProductsSession() (*gocql.Session, error) {
	return sessionFor("SCYLLA_KS_PRODUCTS_KEYSPACE")
}

// GetOrdersSession retourne la session du keyspace orders (commandes, paiements)
func GetOrdersSession() (*gocql.Session, error) {
	return sessionFor("SCYLLA_KS_ORDERS_KEYSPACE")
}

func sessionFor(envVar string) (*gocql.Session, error) {
	keyspace := os.Getenv(envVar)
	if keyspace == "" {
		return nil, fmt.Errorf("%s non configuré", envVar)
	}
	return scylla.session(keyspace)
}

// =============================================
// REDIS
// =============================================
func connectRedis(ctx context.Context) {
	Redis = redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_HOST"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	if err := Redis.Ping(ctx).Err(); err != nil {
		log.Fatal("❌ Erreur connexion Redis:", err)
	}
	log.Println("✅ Connecté à Redis")
}

// =============================================
// MINIO
// =============================================
func connectMinIO(ctx context.Context) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
		Secure: useSSL,
	})
	if err != nil {
		log.Fatal("❌ Erreur connexion MinIO:", err)
	}

	bucketName := os.Getenv("MINIO_BUCKET")
	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		log.Fatal("❌ Erreur vérification bucket MinIO:", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			log.Fatal("❌ Erreur création bucket MinIO:", err)
		}
		log.Println("🪣 Bucket créé :", bucketName)
	}

	MinIO = client
	log.Println("✅ Connecté à MinIO :", endpoint)
}
