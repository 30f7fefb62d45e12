package dashboard

const dashboardHTML = `<!DOCTYPE html>
<html>
<head>
    <title>IoT System Health Dashboard</title>
    <meta http-equiv="refresh" content="30">
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; background-color: #f5f5f5; }
        .container { max-width: 1200px; margin: 0 auto; }
        .header { text-align: center; margin-bottom: 30px; }
        .status-card { background: white; border-radius: 8px; padding: 20px; margin: 10px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .status-healthy { border-left: 5px solid #4CAF50; }
        .status-degraded { border-left: 5px solid #FF9800; }
        .status-unhealthy { border-left: 5px solid #F44336; }
        .status-offline { border-left: 5px solid #9E9E9E; }
        .summary { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 15px; margin-bottom: 30px; }
        .service-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(300px, 1fr)); gap: 15px; }
        .metric { text-align: center; padding: 15px; }
        .metric-value { font-size: 24px; font-weight: bold; color: #333; }
        .metric-label { color: #666; font-size: 14px; }
        .timestamp { color: #888; font-size: 12px; text-align: center; margin-top: 20px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>IoT System Health Dashboard</h1>
            <p>Real-time monitoring of all connected services</p>
        </div>
        <div id="content">Loading...</div>
    </div>
    <script>
    async function loadDashboard() {
        try {
            const response = await fetch('/system');
            const data = await response.json();

            let html = '<div class="summary">';
            html += '<div class="status-card metric"><div class="metric-value">' + data.overall_status.toUpperCase() + '</div><div class="metric-label">Overall Status</div></div>';
            html += '<div class="status-card metric"><div class="metric-value">' + data.summary.healthy_services + '/' + data.summary.total_services + '</div><div class="metric-label">Services Online</div></div>';
            html += '<div class="status-card metric"><div class="metric-value">' + data.summary.uptime_percentage.toFixed(1) + '%</div><div class="metric-label">System Uptime</div></div>';
            if (data.summary.avg_response_time_ms) {
                html += '<div class="status-card metric"><div class="metric-value">' + data.summary.avg_response_time_ms.toFixed(0) + 'ms</div><div class="metric-label">Avg Response Time</div></div>';
            }
            html += '</div>';

            html += '<div class="service-grid">';
            data.services.forEach(service => {
                const statusClass = 'status-' + service.status;
                html += '<div class="status-card ' + statusClass + '">';
                html += '<h3>' + service.service.charAt(0).toUpperCase() + service.service.slice(1) + ' Service</h3>';
                html += '<p><strong>Status:</strong> ' + service.status + '</p>';
                html += '<p><strong>Response Time:</strong> ' + (service.response_time_ms ? service.response_time_ms.toFixed(0) + 'ms' : 'N/A') + '</p>';
                html += '<p><strong>Last Check:</strong> ' + new Date(service.timestamp).toLocaleTimeString() + '</p>';
                if (service.details) {
                    html += '<details><summary>Details</summary><pre>' + JSON.stringify(service.details, null, 2) + '</pre></details>';
                }
                html += '</div>';
            });
            html += '</div>';

            html += '<div class="timestamp">Last updated: ' + new Date(data.timestamp).toLocaleString() + '</div>';
            document.getElementById('content').innerHTML = html;
        } catch (error) {
            document.getElementById('content').innerHTML = '<div class="status-card status-unhealthy"><h3>Error loading dashboard</h3><p>' + error.message + '</p></div>';
        }
    }

    loadDashboard();
    setInterval(loadDashboard, 30000);
    </script>
</body>
</html>`

const chartsHTML = `<!DOCTYPE html>
<html>
<head>
    <title>IoT Sensor Data Charts</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; background-color: #f5f5f5; }
        .container { max-width: 1200px; margin: 0 auto; }
        .header { text-align: center; margin-bottom: 30px; }
        .chart-container { background: white; border-radius: 8px; padding: 20px; margin: 20px 0; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .controls { text-align: center; margin: 20px 0; }
        select, button { padding: 8px 12px; margin: 0 5px; }
        .metrics { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 15px; margin: 20px 0; }
        .metric-card { background: white; border-radius: 8px; padding: 15px; text-align: center; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .metric-value { font-size: 24px; font-weight: bold; color: #333; }
        .metric-label { color: #666; font-size: 14px; }
        .loading { text-align: center; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>IoT Sensor Data Charts</h1>
            <p>Real-time temperature and humidity monitoring</p>
        </div>
        <div class="controls">
            <select id="timeRange">
                <option value="60">Last Hour</option>
                <option value="360">Last 6 Hours</option>
                <option value="1440">Last 24 Hours</option>
                <option value="10080">Last Week</option>
            </select>
            <button onclick="loadCharts()">Refresh</button>
            <button onclick="toggleAutoRefresh()">Auto Refresh: <span id="autoStatus">OFF</span></button>
        </div>
        <div id="metrics" class="metrics"></div>
        <div class="chart-container"><canvas id="temperatureChart"></canvas></div>
        <div class="chart-container"><canvas id="humidityChart"></canvas></div>
        <div id="loadingMessage" class="loading">Loading sensor data...</div>
    </div>
    <script>
    let temperatureChart = null;
    let humidityChart = null;
    let autoRefreshInterval = null;
    let isAutoRefresh = false;

    async function loadCharts() {
        const timeRange = document.getElementById('timeRange').value;
        const loadingEl = document.getElementById('loadingMessage');
        loadingEl.style.display = 'block';
        try {
            const response = await fetch('/data?minutes=' + timeRange);
            const data = await response.json();
            if (data.error) { throw new Error(data.error); }
            updateMetrics(data);
            updateCharts(data);
            loadingEl.style.display = 'none';
        } catch (error) {
            loadingEl.innerHTML = '<p style="color: red;">Error loading data: ' + error.message + '</p>';
        }
    }

    function updateMetrics(data) {
        const sensors = data.sensors || {};
        let html = '';
        html += '<div class="metric-card"><div class="metric-value">' + Object.keys(sensors).length + '</div><div class="metric-label">Active Sensors</div></div>';
        html += '<div class="metric-card"><div class="metric-value">' + data.total_readings + '</div><div class="metric-label">Total Readings</div></div>';
        Object.entries(sensors).forEach(([sensorId, sensorData]) => {
            const latest = sensorData.latest;
            if (latest) {
                html += '<div class="metric-card"><div class="metric-value">' + (latest.temperature ? latest.temperature.toFixed(1) + '&deg;F' : 'N/A') + '</div><div class="metric-label">' + sensorId + ' Temperature</div></div>';
                html += '<div class="metric-card"><div class="metric-value">' + (latest.humidity ? latest.humidity.toFixed(1) + '%' : 'N/A') + '</div><div class="metric-label">' + sensorId + ' Humidity</div></div>';
            }
        });
        document.getElementById('metrics').innerHTML = html;
    }

    function updateCharts(data) {
        const sensors = data.sensors || {};
        const datasets = [];
        const colors = ['#FF6384', '#36A2EB', '#FFCE56', '#4BC0C0', '#9966FF', '#FF9F40'];
        let colorIndex = 0;

        Object.entries(sensors).forEach(([sensorId, sensorData]) => {
            const tempData = [], humidityData = [], labels = [];
            sensorData.data.forEach(reading => {
                labels.push(new Date(reading.timestamp).toLocaleTimeString());
                tempData.push(reading.temperature);
                humidityData.push(reading.humidity);
            });
            const color = colors[colorIndex % colors.length];
            datasets.push({
                temperature: { label: sensorId, data: tempData, borderColor: color, backgroundColor: color + '20', fill: false, tension: 0.1 },
                humidity: { label: sensorId, data: humidityData, borderColor: color, backgroundColor: color + '20', fill: false, tension: 0.1 },
                labels: labels
            });
            colorIndex++;
        });

        if (temperatureChart) { temperatureChart.destroy(); }
        temperatureChart = new Chart(document.getElementById('temperatureChart').getContext('2d'), {
            type: 'line',
            data: { labels: datasets[0] ? datasets[0].labels : [], datasets: datasets.map(ds => ds.temperature) },
            options: {
                responsive: true,
                plugins: { title: { display: true, text: 'Temperature Over Time (F)' } },
                scales: { y: { beginAtZero: false, title: { display: true, text: 'Temperature (F)' } } }
            }
        });

        if (humidityChart) { humidityChart.destroy(); }
        humidityChart = new Chart(document.getElementById('humidityChart').getContext('2d'), {
            type: 'line',
            data: { labels: datasets[0] ? datasets[0].labels : [], datasets: datasets.map(ds => ds.humidity) },
            options: {
                responsive: true,
                plugins: { title: { display: true, text: 'Humidity Over Time (%)' } },
                scales: { y: { beginAtZero: true, max: 100, title: { display: true, text: 'Humidity (%)' } } }
            }
        });
    }

    function toggleAutoRefresh() {
        const statusEl = document.getElementById('autoStatus');
        if (isAutoRefresh) {
            clearInterval(autoRefreshInterval);
            isAutoRefresh = false;
            statusEl.textContent = 'OFF';
        } else {
            autoRefreshInterval = setInterval(loadCharts, 30000);
            isAutoRefresh = true;
            statusEl.textContent = 'ON';
        }
    }

    loadCharts();
    </script>
</body>
</html>`
